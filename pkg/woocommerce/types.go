package woocommerce

// Image is a product image reference.
type Image struct {
	ID   int64  `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

// Term is a category or tag reference.
type Term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Attribute struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Product is the subset of the WooCommerce v3 product resource the
// storefront reads. Prices are decimal strings.
type Product struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Slug             string      `json:"slug"`
	Permalink        string      `json:"permalink"`
	Type             string      `json:"type"`
	Status           string      `json:"status"`
	Featured         bool        `json:"featured"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"short_description"`
	SKU              string      `json:"sku"`
	Price            string      `json:"price"`
	RegularPrice     string      `json:"regular_price"`
	SalePrice        string      `json:"sale_price"`
	OnSale           bool        `json:"on_sale"`
	Purchasable      bool        `json:"purchasable"`
	Categories       []Term      `json:"categories"`
	Tags             []Term      `json:"tags"`
	Images           []Image     `json:"images"`
	Attributes       []Attribute `json:"attributes"`
	StockStatus      string      `json:"stock_status"`
	StockQuantity    *int        `json:"stock_quantity"`
	AverageRating    string      `json:"average_rating"`
	RatingCount      int         `json:"rating_count"`
	RelatedIDs       []int64     `json:"related_ids"`
}

// ProductFilter holds the optional query parameters of GET /products.
type ProductFilter struct {
	PerPage  int
	Page     int
	Status   string
	Category string
	Search   string
	Featured *bool
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type LineItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type ShippingLine struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

type FeeLine struct {
	Name  string `json:"name"`
	Total string `json:"total"`
}

type MetaData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	PaymentMethod      string         `json:"payment_method"`
	PaymentMethodTitle string         `json:"payment_method_title"`
	SetPaid            bool           `json:"set_paid"`
	TransactionID      string         `json:"transaction_id,omitempty"`
	Billing            Address        `json:"billing"`
	Shipping           Address        `json:"shipping"`
	LineItems          []LineItem     `json:"line_items"`
	ShippingLines      []ShippingLine `json:"shipping_lines,omitempty"`
	FeeLines           []FeeLine      `json:"fee_lines"`
	MetaData           []MetaData     `json:"meta_data,omitempty"`
}

// Order is the subset of the created order resource the storefront reads.
type Order struct {
	ID       int64  `json:"id"`
	Number   string `json:"number"`
	Status   string `json:"status"`
	Total    string `json:"total"`
	Currency string `json:"currency"`
	OrderKey string `json:"order_key"`
}

// ErrorResponse is the WooCommerce REST error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}
