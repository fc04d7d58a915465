package store

import "github.com/shopspring/decimal"

// Ingredient is one line of a recipe.
type Ingredient struct {
	IngredientID   string          `json:"ingredientId"`
	IngredientName string          `json:"ingredientName"`
	Unit           *string         `json:"unit,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
}

// Recipe is the recipe form being edited.
type Recipe struct {
	Name         string          `json:"name"`
	CategoryID   string          `json:"categoryId"`
	Yield        decimal.Decimal `json:"yield"`
	Instructions string          `json:"instructions"`
	Ingredients  []Ingredient    `json:"ingredients"`
}

func initialRecipe() Recipe {
	return Recipe{Yield: decimal.NewFromInt(1), Ingredients: []Ingredient{}}
}

func cloneIngredient(in Ingredient) Ingredient {
	in.Unit = clonePtr(in.Unit)
	return in
}

func cloneRecipe(r Recipe) Recipe {
	r.Ingredients = cloneSlice(r.Ingredients, cloneIngredient)
	return r
}

// RecipeDraft backs the add/edit recipe flow.
type RecipeDraft struct {
	*Draft[Recipe]
}

// NewRecipeDraft returns an empty recipe draft.
func NewRecipeDraft() *RecipeDraft {
	return &RecipeDraft{NewDraft(initialRecipe, cloneRecipe)}
}

func (d *RecipeDraft) SetName(v string) {
	d.Update(func(r *Recipe) { r.Name = v })
}

func (d *RecipeDraft) SetCategoryID(v string) {
	d.Update(func(r *Recipe) { r.CategoryID = v })
}

func (d *RecipeDraft) SetYield(v decimal.Decimal) {
	d.Update(func(r *Recipe) { r.Yield = v })
}

func (d *RecipeDraft) SetInstructions(v string) {
	d.Update(func(r *Recipe) { r.Instructions = v })
}

// SetIngredients replaces the ingredients with fn(previous) under the draft lock.
func (d *RecipeDraft) SetIngredients(fn func(prev []Ingredient) []Ingredient) {
	d.Update(func(r *Recipe) {
		r.Ingredients = cloneSlice(fn(cloneSlice(r.Ingredients, cloneIngredient)), cloneIngredient)
	})
}

// ReplaceIngredients sets the ingredients to a fixed list.
func (d *RecipeDraft) ReplaceIngredients(items []Ingredient) {
	d.SetIngredients(func([]Ingredient) []Ingredient { return items })
}
