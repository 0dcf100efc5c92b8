package notify

import (
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-playground/validator"
)

const maxSafeInteger = 1<<53 - 1

var envelopeSchema = func() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("version", openapi3.NewStringSchema()).
		WithProperty("notification_id", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("notification_type", openapi3.NewStringSchema())
	s.Required = []string{"version", "notification_id", "notification_type", "data"}
	return s
}()

func safeInteger() *openapi3.Schema {
	return openapi3.NewIntegerSchema().WithMin(-maxSafeInteger).WithMax(maxSafeInteger)
}

func orderSchema(extra map[string]*openapi3.Schema, required ...string) *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("order_id", openapi3.NewStringSchema()).
		WithProperty("reference_id", openapi3.NewStringSchema()).
		WithProperty("combo_id", openapi3.NewStringSchema()).
		WithProperty("product_id", openapi3.NewStringSchema()).
		WithProperty("quantity", safeInteger()).
		WithProperty("currency", openapi3.NewStringSchema()).
		WithProperty("amount", safeInteger()).
		WithProperty("context", openapi3.NewStringSchema())
	for name, prop := range extra {
		s = s.WithProperty(name, prop)
	}
	s.Required = append([]string{
		"order_id", "reference_id", "combo_id", "product_id", "quantity", "currency", "amount",
	}, required...)
	return s
}

type guard struct {
	schema  *openapi3.Schema
	decode  func(data []byte) (any, error)
	message string
}

var guards = map[Type]guard{
	TypeShipOrder: {
		schema:  orderSchema(map[string]*openapi3.Schema{"is_sandbox": openapi3.NewBoolSchema()}, "is_sandbox"),
		decode:  decodeAs[ShipOrder],
		message: "ShipOrder Data Format Error",
	},
	TypeRefund: {
		schema:  orderSchema(nil),
		decode:  decodeAs[Refund],
		message: "Refund Data Format Error",
	},
}

var validate = validator.New()
