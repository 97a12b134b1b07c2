package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apidrift/driftwatch/internal/classify"
	"github.com/apidrift/driftwatch/internal/domain/model"
)

// TestDefaultTaxonomy_OrderSnapshot pins the rule order. Order decides which
// category a multi-match line lands in, so reordering is a behavior change
// and must show up in review as an edit to this list.
func TestDefaultTaxonomy_OrderSnapshot(t *testing.T) {
	want := []struct {
		category   model.Category
		confidence model.Confidence
	}{
		{model.CategoryRouteDeclaration, model.ConfidenceHigh},
		{model.CategoryRouterMount, model.ConfidenceHigh},
		{model.CategoryResponseContract, model.ConfidenceHigh},
		{model.CategoryStatusCode, model.ConfidenceHigh},
		{model.CategoryErrorRaise, model.ConfidenceHigh},
		{model.CategoryHandlerSignature, model.ConfidenceHigh},
		{model.CategoryClassDeclaration, model.ConfidenceHigh},
		{model.CategoryAuthDependency, model.ConfidenceLow},
		{model.CategoryParameterBinding, model.ConfidenceLow},
		{model.CategoryTypedField, model.ConfidenceHigh},
	}

	rules := classify.DefaultTaxonomy()
	require.Len(t, rules, len(want))

	for i, w := range want {
		assert.Equal(t, w.category, rules[i].Category, "rule %d category", i)
		assert.Equal(t, w.confidence, rules[i].Confidence, "rule %d confidence", i)
	}
}

func TestDefaultTaxonomy_RulesAreComplete(t *testing.T) {
	for _, rule := range classify.DefaultTaxonomy() {
		assert.NotNil(t, rule.Pattern, "rule %s has no pattern", rule.Category)
		assert.NotEmpty(t, rule.Rationale, "rule %s has no rationale", rule.Category)
	}
}

// TestDefaultTaxonomy_PatternSamples checks each rule against a line it must
// recognize, independent of the scanning loop.
func TestDefaultTaxonomy_PatternSamples(t *testing.T) {
	samples := map[model.Category]string{
		model.CategoryRouteDeclaration: `@router.get("/{id}")`,
		model.CategoryRouterMount:      `api_router.include_router(items.router)`,
		model.CategoryResponseContract: `@router.get("/", response_model=ItemsPublic)`,
		model.CategoryStatusCode:       `    return JSONResponse(status_code=201, content=payload)`,
		model.CategoryErrorRaise:       `    raise HTTPException(404, "not found")`,
		model.CategoryHandlerSignature: `async def read_item(id: uuid.UUID) -> Any:`,
		model.CategoryClassDeclaration: `class ItemPublic(SQLModel):`,
		model.CategoryAuthDependency:   `current_user: CurrentUser = Depends(get_current_active_user)`,
		model.CategoryParameterBinding: `    q = Query(None, max_length=50)`,
		model.CategoryTypedField:       `    title: str = Field(min_length=1)`,
	}

	byCategory := make(map[model.Category]classify.Rule)
	for _, r := range classify.DefaultTaxonomy() {
		byCategory[r.Category] = r
	}

	for category, line := range samples {
		rule, ok := byCategory[category]
		require.True(t, ok, "no rule for %s", category)
		assert.True(t, rule.Pattern.MatchString(line), "%s should match %q", category, line)
	}
}
