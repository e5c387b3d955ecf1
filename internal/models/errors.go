package models

import "errors"

// Recoverable, user-facing conditions. Callers compare with errors.Is.
var (
	ErrOutOfStock        = errors.New("product out of stock")
	ErrDuplicateItem     = errors.New("product already in cart")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrIncompatibleUnit  = errors.New("incompatible unit")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrProductNotFound   = errors.New("product not found")

	ErrPriceMismatch        = errors.New("price mismatch")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidUnit          = errors.New("invalid unit")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrBillNotFound         = errors.New("bill not found")
	ErrSaleAlreadyCompleted = errors.New("sale already completed")

	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrOutOfStock, "out_of_stock"},
	{ErrDuplicateItem, "duplicate_item"},
	{ErrInsufficientStock, "insufficient_stock"},
	{ErrIncompatibleUnit, "incompatible_unit"},
	{ErrEmptyCart, "empty_cart"},
	{ErrProductNotFound, "product_not_found"},
	{ErrPriceMismatch, "price_mismatch"},
	{ErrInvalidQuantity, "invalid_quantity"},
	{ErrInvalidUnit, "invalid_unit"},
	{ErrInvalidProduct, "invalid_product"},
	{ErrBillNotFound, "bill_not_found"},
	{ErrSaleAlreadyCompleted, "sale_already_completed"},
	{ErrUnauthorized, "unauthorized"},
	{ErrForbidden, "forbidden"},
	{ErrUnsupportedLanguage, "unsupported_language"},
}

// ErrorCode returns the stable code of the first sentinel err wraps, or "internal"
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}

// IsNotFound reports whether err names a missing product or bill
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrBillNotFound)
}
