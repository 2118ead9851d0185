package order

// ValidationError covers malformed requests caught before any remote call:
// empty carts, bad quantities, unknown discount types. They are terminal for
// the operation and recoverable for the caller.
type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrEmptyCart       = ValidationError("cart is empty")
	ErrBadQuantity     = ValidationError("item quantity must be positive")
	ErrBadDiscountType = ValidationError("unknown discount type")
	ErrOrderPaid       = ValidationError("order is already paid")
	ErrBadSplit        = ValidationError("split quantities exceed source items")
)
