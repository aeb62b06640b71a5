package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"smartshelfx/backend/internal/domain"
)

type EmailGateway interface {
	SendEmail(ctx context.Context, to string, subject string, body string) error
}

type SMSGateway interface {
	SendSMS(ctx context.Context, to string, body string) error
}

// Options selects the channels a dispatch attempt should use. Both false
// means the caller does not want a dispatch at all.
type Options struct {
	EmailRequested bool
	SMSRequested   bool
}

type Result struct {
	EmailSent      bool
	SMSSent        bool
	FailureMessage string
}

func (r Result) Dispatched() bool {
	return r.EmailSent || r.SMSSent
}

// Dispatcher sends purchase orders to vendors over the configured channels.
// Channel failures never surface as errors; they are reported in the Result
// so the caller can record them on the order.
type Dispatcher struct {
	email EmailGateway
	sms   SMSGateway
}

func NewDispatcher(email EmailGateway, sms SMSGateway) *Dispatcher {
	return &Dispatcher{email: email, sms: sms}
}

func (d *Dispatcher) Dispatch(ctx context.Context, order domain.PurchaseOrder, warehouseName string, opts Options) Result {
	result := Result{}
	failure := ""

	if opts.EmailRequested {
		sent, errMsg := d.sendEmail(ctx, order, warehouseName)
		result.EmailSent = sent
		failure = mergeFailure(failure, errMsg)
	}

	if opts.SMSRequested {
		sent, errMsg := d.sendSMS(ctx, order)
		result.SMSSent = sent
		failure = mergeFailure(failure, errMsg)
	}

	result.FailureMessage = failure
	return result
}

func (d *Dispatcher) sendEmail(ctx context.Context, order domain.PurchaseOrder, warehouseName string) (bool, string) {
	if strings.TrimSpace(order.VendorEmail) == "" {
		return false, "Vendor email address is missing"
	}
	if d.email == nil {
		log.Printf("[notify] email dispatch requested for %s but no email gateway configured", order.Reference)
		return false, "Email gateway not configured"
	}
	subject := "Purchase Order " + order.Reference
	if err := d.email.SendEmail(ctx, order.VendorEmail, subject, buildEmailBody(order, warehouseName)); err != nil {
		log.Printf("[notify] failed to email purchase order %s: %v", order.Reference, err)
		return false, "Email dispatch failed: " + err.Error()
	}
	log.Printf("[notify] purchase order %s emailed to %s", order.Reference, order.VendorEmail)
	return true, ""
}

func (d *Dispatcher) sendSMS(ctx context.Context, order domain.PurchaseOrder) (bool, string) {
	if strings.TrimSpace(order.VendorPhone) == "" {
		return false, "Vendor phone number is missing"
	}
	if d.sms == nil {
		log.Printf("[notify] SMS dispatch requested for %s but no SMS gateway configured", order.Reference)
		return false, "SMS gateway not configured"
	}
	if err := d.sms.SendSMS(ctx, order.VendorPhone, buildSMSBody(order)); err != nil {
		log.Printf("[notify] failed to send SMS for purchase order %s: %v", order.Reference, err)
		return false, "SMS dispatch failed: " + err.Error()
	}
	log.Printf("[notify] purchase order %s SMS sent to %s", order.Reference, order.VendorPhone)
	return true, ""
}

func buildEmailBody(order domain.PurchaseOrder, warehouseName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", order.VendorName)
	fmt.Fprintf(&b, "Please review purchase order %s for warehouse %s.\n\n", order.Reference, warehouseName)
	b.WriteString("Items:\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, " - %s (SKU: %s) -> %d @ %.2f = %.2f\n",
			item.ProductName, item.ProductSKU, item.Quantity, item.UnitPrice, item.LineTotal)
	}
	fmt.Fprintf(&b, "\nSubtotal: %.2f\n", order.Subtotal)
	fmt.Fprintf(&b, "Total: %.2f\n", order.Total)
	if order.ExpectedDeliveryDate != nil {
		fmt.Fprintf(&b, "Requested delivery by: %s\n", order.ExpectedDeliveryDate.Format("2006-01-02"))
	}
	notes := order.Notes
	if strings.TrimSpace(notes) == "" {
		notes = "N/A"
	}
	fmt.Fprintf(&b, "\nNotes: %s\n\n", notes)
	b.WriteString("Thank you,\nSmartShelfX Inventory Team\n")
	return b.String()
}

func buildSMSBody(order domain.PurchaseOrder) string {
	parts := make([]string, 0, 3)
	for i, item := range order.Items {
		if i == 3 {
			break
		}
		parts = append(parts, fmt.Sprintf("%s x%d", item.ProductName, item.Quantity))
	}
	items := strings.Join(parts, ", ")
	if len(order.Items) > 3 {
		items += ", ..."
	}
	body := fmt.Sprintf("PO %s total %.2f. Items: %s", order.Reference, order.Total, items)
	if order.ExpectedDeliveryDate != nil {
		body += ". Deliver by " + order.ExpectedDeliveryDate.Format("2006-01-02")
	}
	return body
}

func mergeFailure(existing, addition string) string {
	if addition == "" {
		return existing
	}
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}
