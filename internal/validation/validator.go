package validation

import (
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

// New returns a validator for inbound relay records. Fields must be
// present and carry something other than whitespace; status values are
// not restricted.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(orderPlacedStructValidation, domain.OrderPlaced{})
	v.RegisterStructValidation(statusChangedStructValidation, domain.StatusChanged{})
	return v
}

func orderPlacedStructValidation(sl validatorv10.StructLevel) {
	rec := sl.Current().Interface().(domain.OrderPlaced)
	reportBlank(sl, rec.OrderID, "OrderID")
	reportBlank(sl, rec.Table, "Table")
	reportBlank(sl, rec.Item, "Item")
}

func statusChangedStructValidation(sl validatorv10.StructLevel) {
	rec := sl.Current().Interface().(domain.StatusChanged)
	reportBlank(sl, rec.OrderID, "OrderID")
	reportBlank(sl, rec.Status, "Status")
}

func reportBlank(sl validatorv10.StructLevel, value, field string) {
	if value != "" && strings.TrimSpace(value) == "" {
		sl.ReportError(value, field, field, "not_blank", "")
	}
}

// Event checks the shape of a relay broadcast before it reaches the ledger.
func Event(v *validatorv10.Validate, ev domain.Event) error {
	switch ev.Name {
	case domain.EventReceiveOrder:
		return v.Struct(domain.OrderPlaced{OrderID: ev.OrderID, Table: ev.Table, Item: ev.Item})
	case domain.EventReceiveStatusUpdate:
		return v.Struct(domain.StatusChanged{OrderID: ev.OrderID, Status: ev.Status})
	default:
		return fmt.Errorf("unknown event %q", ev.Name)
	}
}

// Fields flattens validation errors into field -> message.
func Fields(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
	} else if err != nil {
		out["error"] = err.Error()
	}
	return out
}
