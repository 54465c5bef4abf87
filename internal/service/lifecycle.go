package service

import (
	"time"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
)

// returnWindow is how long after delivery a customer may still request a
// return, measured from the order's last update.
const returnWindow = 48 * time.Hour

// canCustomerEdit reports whether the customer may still change items and
// address. Only processing orders are fully editable.
func canCustomerEdit(o *model.Order) bool {
	return o.OrderStatus == model.OrderProcessing
}

// lifecycleClock is the reference instant for time-window rules: the last
// update when present, else placement time.
func lifecycleClock(o *model.Order) time.Time {
	if !o.UpdatedAt.IsZero() {
		return o.UpdatedAt
	}
	return o.CreatedAt
}

// validateCustomerTransition enforces the customer-side state machine:
//
//	processing           -> cancelled
//	delivered            -> return-request   (within the return window)
//	return-request       -> delivered        (withdrawal, no window check)
//
// Everything else is the admin's to decide.
func validateCustomerTransition(o *model.Order, target model.OrderStatus, now time.Time) error {
	switch target {
	case model.OrderCancelled:
		if o.OrderStatus != model.OrderProcessing {
			return apperr.State("order can only be cancelled while it is processing")
		}

	case model.OrderReturnRequest:
		if o.OrderStatus != model.OrderDelivered && o.OrderStatus != model.OrderReturnRequest {
			return apperr.State("a return can only be requested for a delivered order")
		}
		if now.Sub(lifecycleClock(o)) > returnWindow {
			return apperr.State("the 2-day return window for this order has passed")
		}

	case model.OrderDelivered:
		// Withdrawing a return request is allowed at any time.
		if o.OrderStatus != model.OrderReturnRequest {
			return apperr.State("order status cannot be changed to delivered")
		}

	default:
		return apperr.State("order status cannot be changed to " + string(target))
	}
	return nil
}

// validateAdminStatuses gates the generic admin update path: enum
// membership only, no transition rules.
func validateAdminStatuses(orderStatus *model.OrderStatus, paymentStatus *model.PaymentStatus) error {
	if orderStatus != nil && !model.ValidOrderStatuses[*orderStatus] {
		return apperr.Validation("unknown order status: " + string(*orderStatus))
	}
	if paymentStatus != nil && !model.ValidPaymentStatuses[*paymentStatus] {
		return apperr.Validation("unknown payment status: " + string(*paymentStatus))
	}
	return nil
}
