// Package catalog defines the static registry of vetted write templates the
// assistant is allowed to execute against a tenant's external database.
//
// Templates are code-defined and immutable: free text from users never becomes
// mutation SQL directly; the planner may only select a template from this
// registry and fill in its declared parameters. The declared parameter list is
// the binding contract — positional placeholders ($1, $2, …) in the statement
// correspond 1:1, in order, to Params. A trailing '?' on a parameter name
// marks it optional (bound as NULL when absent).
package catalog

import "strings"

// Template is a named, parameterized write statement.
type Template struct {
	ID          string
	Description string
	SQL         string
	// Params lists parameter names in binding order. A trailing '?' marks
	// an optional parameter.
	Params []string
}

// Business modes selecting which template subset applies.
const (
	ModeSales        = "sales"
	ModeReservations = "reservations"
)

// actions holds the templates per business mode. Lookup order within a mode
// is the order shown to the planner.
var actions = map[string][]Template{
	ModeReservations: {
		{
			ID:          "create_appointment",
			Description: "Crear turno",
			SQL: `INSERT INTO appointments (customer_name, phone, service, start_time, end_time, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, customer_name, service, start_time, end_time`,
			Params: []string{"customer_name", "phone", "service", "start_time", "end_time", "notes?"},
		},
		{
			ID:          "cancel_appointment",
			Description: "Cancelar turno por ID",
			SQL:         `UPDATE appointments SET status='cancelled', cancelled_at=now() WHERE id=$1 RETURNING id, status`,
			Params:      []string{"appointment_id"},
		},
		{
			ID:          "reschedule_appointment",
			Description: "Reprogramar turno",
			SQL: `UPDATE appointments
SET start_time=$2, end_time=$3
WHERE id=$1
RETURNING id, start_time, end_time`,
			Params: []string{"appointment_id", "new_start_time", "new_end_time"},
		},
	},
	ModeSales: {
		{
			ID:          "create_order",
			Description: "Crear pedido simple",
			SQL: `INSERT INTO orders (customer_name, customer_phone, total_amount, notes)
VALUES ($1, $2, $3, $4)
RETURNING id, customer_name, total_amount, created_at`,
			Params: []string{"customer_name", "phone", "total_amount", "notes?"},
		},
		{
			ID:          "add_order_item",
			Description: "Agregar item a pedido",
			SQL: `INSERT INTO order_items (order_id, product_id, quantity, unit_price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, product_id, quantity`,
			Params: []string{"order_id", "product_id", "quantity", "unit_price"},
		},
		{
			ID:          "update_stock",
			Description: "Actualizar stock de producto",
			SQL:         `UPDATE products SET stock = stock + $2 WHERE id=$1 RETURNING id, stock`,
			Params:      []string{"product_id", "delta_stock"},
		},
	},
}

// ForMode returns the ordered templates available for a business mode.
// Unknown modes yield an empty list.
func ForMode(mode string) []Template {
	return actions[mode]
}

// Find returns the template with the given id within a mode, or false when
// no such template exists.
func Find(mode, actionID string) (Template, bool) {
	for _, t := range actions[mode] {
		if t.ID == actionID {
			return t, true
		}
	}
	return Template{}, false
}

// ValidMode reports whether mode names a known business mode.
func ValidMode(mode string) bool {
	_, ok := actions[mode]
	return ok
}

// ParamName splits a declared parameter into its bare name and whether it is
// optional (declared with a trailing '?').
func ParamName(declared string) (name string, optional bool) {
	if strings.HasSuffix(declared, "?") {
		return strings.TrimSuffix(declared, "?"), true
	}
	return declared, false
}
