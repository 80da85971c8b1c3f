// internal/service/email/templates.go
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"
)

const (
	SaleSubject    = "Sale Notification"
	RestockSubject = "Restock Alert"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.Title}}</title>
	<style>
		body { font-family: 'Segoe UI', Arial, sans-serif; background: #f7f7f7; margin: 0; padding: 0; }
		.container { max-width: 520px; margin: 40px auto; background: #fff; border-radius: 12px; box-shadow: 0 4px 24px rgba(0,0,0,0.08); padding: 36px 32px 28px 32px; }
		.brand { color: #e6007a; font-size: 2rem; font-weight: bold; text-align: center; letter-spacing: 1px; }
		.subtitle { text-align: center; color: #333; font-size: 1.2rem; margin-bottom: 18px; }
		.info { color: #333; font-size: 16px; margin-bottom: 14px; }
		.highlight { background: #fdf0f7; border-radius: 8px; padding: 18px; text-align: center; margin: 18px 0; }
		.big { color: #e6007a; font-size: 2.2rem; font-weight: bold; }
		.footer { margin-top: 30px; text-align: center; color: #aaa; font-size: 13px; }
	</style>
</head>
<body>
<div class="container">
	<div class="brand">FashionSphere</div>
	<div class="subtitle">{{.Title}}</div>
	{{template "content" .}}
	<div class="footer">&copy; {{.Year}} FashionSphere</div>
</div>
</body>
</html>{{end}}`

const saleContent = `{{define "content"}}
	<div class="info">We are thrilled to announce a new sale: <b>{{.Name}}</b></div>
	<div class="highlight">
		<div class="big">{{.Percentage}}% OFF</div>
		<div><b>Start Date:</b> {{.StartDate}}</div>
		<div><b>End Date:</b> {{.EndDate}}</div>
	</div>
	<div class="info">Don't miss out on these discounts. Shop now and save during the sale period.</div>
{{end}}`

const restockContent = `{{define "content"}}
	<div class="info">Hello {{.Subscriber}},<br>The following product has been <b>restocked</b>:</div>
	<div class="highlight">
		<div><b>{{.Product}}</b></div>
		<div>New Stock:</div>
		<div class="big">{{.Quantity}}</div>
	</div>
{{end}}`

var (
	saleTemplate    = template.Must(template.Must(template.New("sale").Parse(layout)).Parse(saleContent))
	restockTemplate = template.Must(template.Must(template.New("restock").Parse(layout)).Parse(restockContent))
)

const dateLayout = "Jan 2, 2006"

type saleView struct {
	Title      string
	Year       int
	Name       string
	Percentage string
	StartDate  string
	EndDate    string
}

type restockView struct {
	Title      string
	Year       int
	Subscriber string
	Product    string
	Quantity   int
}

// RenderSaleNotification renders the announcement sent to sale-notification subscribers.
func RenderSaleNotification(name string, percentage float64, start, end time.Time) (string, error) {
	view := saleView{
		Title:      "Exciting Sale Alert!",
		Year:       time.Now().Year(),
		Name:       name,
		Percentage: strconv.FormatFloat(percentage, 'f', -1, 64),
		StartDate:  start.Format(dateLayout),
		EndDate:    end.Format(dateLayout),
	}
	return render(saleTemplate, view)
}

// RenderRestockAlert renders the message sent to one wait-list subscriber.
func RenderRestockAlert(subscriber, productName string, quantity int) (string, error) {
	view := restockView{
		Title:      "Restock Alert",
		Year:       time.Now().Year(),
		Subscriber: subscriber,
		Product:    productName,
		Quantity:   quantity,
	}
	return render(restockTemplate, view)
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
