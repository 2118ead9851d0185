package catalog

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/pricing"
)

// Master-data kinds synchronized between terminals and the remote store.
const (
	KindMenu        = "menu"
	KindCategories  = "categories"
	KindProfile     = "profile"
	KindIngredients = "ingredients"
)

// RecipeLine maps one ingredient consumed per unit of a menu item sold.
type RecipeLine struct {
	IngredientID uuid.UUID `json:"ingredient_id" bson:"ingredient_id"`
	Amount       float64   `json:"amount" bson:"amount"`
}

type MenuItem struct {
	ID       uuid.UUID `json:"id" bson:"_id"`
	BranchID uuid.UUID `json:"branch_id" bson:"branch_id"`
	Name     string    `json:"name" bson:"name"`
	Price    int64     `json:"price" bson:"price"`
	Category string    `json:"category" bson:"category"`

	// TrackStock enables the direct per-unit counter, independent of any
	// recipe.
	TrackStock bool         `json:"track_stock" bson:"track_stock"`
	Stock      int64        `json:"stock" bson:"stock"`
	Recipe     []RecipeLine `json:"recipe,omitempty" bson:"recipe,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu-item"
}

func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = apt.GenerateNewID()
	}
}

func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
}

func (m *MenuItem) BeforeUpdate() {
	m.UpdatedAt = time.Now()
}

type Category struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	BranchID  uuid.UUID `json:"branch_id" bson:"branch_id"`
	Name      string    `json:"name" bson:"name"`
	SortOrder int       `json:"sort_order" bson:"sort_order"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (c *Category) GetID() uuid.UUID {
	return c.ID
}

func (c *Category) ResourceType() string {
	return "category"
}

func (c *Category) EnsureID() {
	if c.ID == uuid.Nil {
		c.ID = apt.GenerateNewID()
	}
}

func (c *Category) BeforeCreate() {
	c.EnsureID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
}

func (c *Category) BeforeUpdate() {
	c.UpdatedAt = time.Now()
}

// Ingredient stock is a float: recipes measure in fractional units (kg,
// liters). Mutated only through the stock ledger.
type Ingredient struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	BranchID  uuid.UUID `json:"branch_id" bson:"branch_id"`
	Name      string    `json:"name" bson:"name"`
	Unit      string    `json:"unit" bson:"unit"`
	Stock     float64   `json:"stock" bson:"stock"`
	MinStock  float64   `json:"min_stock" bson:"min_stock"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (i *Ingredient) GetID() uuid.UUID {
	return i.ID
}

func (i *Ingredient) ResourceType() string {
	return "ingredient"
}

func (i *Ingredient) EnsureID() {
	if i.ID == uuid.Nil {
		i.ID = apt.GenerateNewID()
	}
}

func (i *Ingredient) BeforeCreate() {
	i.EnsureID()
	i.CreatedAt = time.Now()
	i.UpdatedAt = time.Now()
}

func (i *Ingredient) BeforeUpdate() {
	i.UpdatedAt = time.Now()
}

// Profile is the branch display and pricing configuration.
type Profile struct {
	BranchID uuid.UUID `json:"branch_id" bson:"_id"`
	Name     string    `json:"name" bson:"name"`
	Address  string    `json:"address" bson:"address"`
	Phone    string    `json:"phone" bson:"phone"`
	Currency string    `json:"currency" bson:"currency"`

	Tax     pricing.TaxConfig     `json:"tax" bson:"tax"`
	Service pricing.ServiceConfig `json:"service" bson:"service"`

	ReceiptFooter string    `json:"receipt_footer" bson:"receipt_footer"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

type Staff struct {
	ID       uuid.UUID `json:"id" bson:"_id"`
	BranchID uuid.UUID `json:"branch_id" bson:"branch_id"`
	Name     string    `json:"name" bson:"name"`
	Role     string    `json:"role" bson:"role"`
	// PINHash is a bcrypt hash; the raw PIN is never stored.
	PINHash   string    `json:"-" bson:"pin_hash"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (s *Staff) GetID() uuid.UUID {
	return s.ID
}

func (s *Staff) ResourceType() string {
	return "staff"
}

func (s *Staff) EnsureID() {
	if s.ID == uuid.Nil {
		s.ID = apt.GenerateNewID()
	}
}

func (s *Staff) BeforeCreate() {
	s.EnsureID()
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
}

func (s *Staff) BeforeUpdate() {
	s.UpdatedAt = time.Now()
}
