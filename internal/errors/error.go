// Package errors provides custom error types for billing and stock operations.
package errors

import "errors"

var ErrUnknownProduct = errors.New("unknown product")
var ErrDuplicateProduct = errors.New("product already exists")

var ErrOutOfStock = errors.New("not enough stock")
var ErrInvalidQuantity = errors.New("quantity must be a positive number")
var ErrInvalidPrice = errors.New("price must be a positive number")

var ErrEmptyBill = errors.New("bill has no items")
var ErrNoReceipt = errors.New("no receipt has been generated")
