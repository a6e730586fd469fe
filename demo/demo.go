// Package demo provides the sample diagrams shown by the demo server.
package demo

import "github.com/matt-g-everett/seqtx/diagram"

// Demo names.
const (
	RegistrationName = "registration"
	OrderName        = "order"
)

func req(from, to int, msg string) diagram.Step {
	return diagram.Step{From: from, To: to, Message: msg, Type: diagram.StepRequest}
}

func resp(from, to int, msg string) diagram.Step {
	return diagram.Step{From: from, To: to, Message: msg, Type: diagram.StepResponse}
}

func highlight(s diagram.Step) diagram.Step {
	s.Highlight = true
	return s
}

// Registration is a user sign-up flow through a microservice backend.
func Registration() *diagram.Diagram {
	d := diagram.Diagram{
		Title:    "User Registration Flow",
		Subtitle: "End-to-end sign-up in a microservice architecture",
		Actors: []diagram.Actor{
			{Name: "User", Label: "Browser", Color: "bg-blue-500", Icon: "users"},
			{Name: "Frontend", Label: "Web App", Color: "bg-green-500", Icon: "globe"},
			{Name: "API", Label: "API Gateway", Color: "bg-purple-500", Icon: "server"},
			{Name: "Auth", Label: "Auth Service", Color: "bg-orange-500", Icon: "shield"},
			{Name: "Database", Label: "User DB", Color: "bg-red-500", Icon: "database"},
			{Name: "Email", Label: "Mail Service", Color: "bg-cyan-500", Icon: "mail"},
		},
		Steps: []diagram.Step{
			req(0, 1, "Fill in and submit the sign-up form"),
			req(1, 2, "POST /api/register (user details)"),
			req(2, 3, "Validate user details"),
			req(3, 4, "Check whether the email exists"),
			resp(4, 3, "Return lookup result"),
			highlight(req(3, 4, "Create user record")),
			resp(4, 3, "Return user ID"),
			req(3, 5, "Send verification email"),
			resp(5, 3, "Email sent"),
			resp(3, 2, "Registered, return token"),
			resp(2, 1, "Return registration result"),
			resp(1, 0, `Show "check your inbox" notice`),
		},
	}.WithDefaults()
	return &d
}

// Order is an e-commerce checkout and fulfilment flow.
func Order() *diagram.Diagram {
	d := diagram.Diagram{
		Title:    "E-commerce Order Flow",
		Subtitle: "Checkout, payment and fulfilment",
		Actors: []diagram.Actor{
			{Name: "Customer", Label: "Shopper", Color: "bg-blue-500", Icon: "users"},
			{Name: "Shop", Label: "Storefront", Color: "bg-green-500", Icon: "shopping-cart"},
			{Name: "Payment", Label: "Payment Service", Color: "bg-yellow-500", Icon: "credit-card"},
			{Name: "Inventory", Label: "Inventory Service", Color: "bg-purple-500", Icon: "package"},
			{Name: "Logistics", Label: "Shipping Service", Color: "bg-orange-500", Icon: "truck"},
		},
		Steps: []diagram.Step{
			req(0, 1, "Pick items and place order"),
			req(1, 3, "Check stock"),
			resp(3, 1, "In stock, reserve items"),
			highlight(req(1, 2, "Create order and start payment")),
			resp(2, 1, "Payment succeeded"),
			req(1, 3, "Commit stock deduction"),
			resp(3, 1, "Stock deducted"),
			req(1, 4, "Create shipment"),
			resp(4, 1, "Return tracking number"),
			resp(1, 0, "Order placed, awaiting shipment"),
		},
	}.WithDefaults()
	return &d
}

// Names lists the built-in demos in display order.
func Names() []string {
	return []string{RegistrationName, OrderName}
}

// All returns fresh copies of the built-in demos keyed by name.
func All() map[string]*diagram.Diagram {
	return map[string]*diagram.Diagram{
		RegistrationName: Registration(),
		OrderName:        Order(),
	}
}
