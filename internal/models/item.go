package models

// Item is the single inventory record. Every field besides the id is
// optional; Images holds /uploads/-relative paths in upload order.
type Item struct {
	ID          string   `json:"id"`
	Sku         string   `json:"sku"`
	Name        string   `json:"name"`
	Qty         int64    `json:"qty"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	Starred     bool     `json:"starred"`
}

// ItemForm carries the raw multipart form values for create and update
// requests. Numeric and boolean coercion happens in the item service so
// bad values surface as validation errors instead of silent zeroes.
type ItemForm struct {
	Sku            string
	Name           string
	Qty            string
	Description    string
	Price          string
	Starred        string
	ExistingImages string
}

// ItemUpdate is the carrier for UpdateByID. Scalar fields always
// overwrite the stored values; a nil Images pointer leaves the stored
// image list untouched.
type ItemUpdate struct {
	Sku         string
	Name        string
	Qty         int64
	Description string
	Price       float64
	Starred     bool
	Images      *[]string
}
