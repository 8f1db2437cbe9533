package errors

// Error codes returned in the "error" field of JSON error bodies.
// Format: CATEGORY_SPECIFIC_DETAIL. The frontend maps messages from these.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized  = "AUTH_UNAUTHORIZED"
	AuthTokenInvalid  = "AUTH_TOKEN_INVALID"
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"
	SessionInvalid    = "SESSION_INVALID"
	SessionNotPresent = "SESSION_NOT_PRESENT"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (CATALOG_) ====================
	CatalogProductNotFound = "CATALOG_PRODUCT_NOT_FOUND"
	CatalogUnavailable     = "CATALOG_UNAVAILABLE"

	// ==================== Cart (CART_) ====================
	CartEmpty = "CART_EMPTY"

	// ==================== Checkout (CHECKOUT_) ====================
	CheckoutValidation              = "CHECKOUT_VALIDATION"
	CheckoutPaymentUnavailable      = "CHECKOUT_PAYMENT_UNAVAILABLE"
	CheckoutPaymentNotConfirmed     = "CHECKOUT_PAYMENT_NOT_CONFIRMED"
	CheckoutSubmissionInFlight      = "CHECKOUT_SUBMISSION_IN_FLIGHT"
	CheckoutOrderAlreadyPlaced      = "CHECKOUT_ORDER_ALREADY_PLACED"
	CheckoutOrderFailedAfterPayment = "CHECKOUT_ORDER_FAILED_AFTER_PAYMENT"
	CheckoutNotStarted              = "CHECKOUT_NOT_STARTED"

	// ==================== Payment intent endpoint ====================
	// These keep the wire values the storefront frontend already handles.
	PaymentConfigError        = "Server configuration error"
	PaymentInvalidRequest     = "Invalid request"
	PaymentInvalidAmount      = "Invalid amount"
	PaymentInvalidCurrency    = "Invalid currency"
	StripeInvalidRequestError = "StripeInvalidRequestError"
	StripeAuthenticationError = "StripeAuthenticationError"
	StripeAPIError            = "StripeAPIError"
	StripeError               = "StripeError"

	// ==================== Routing ====================
	RouteNotFound = "Not found"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
