package pages

import (
	"github.com/a-h/templ"

	"campusstay_echo/internal/services"
	"campusstay_echo/web/templates/shared"
)

type PaymentConfirmationProps struct {
	shared.Layout
	Confirmation *services.Confirmation
}

var confirmationTmpl = layoutPage(`{{with .Confirmation}}<section class="receipt">
<h1>Payment confirmed</h1>
<p>Reference <code>{{.Reference}}</code></p>
{{with .LevyPayment}}
  <p>Levy of {{.Currency}} {{money .Amount}} for {{.RoomCount}} room(s), paid {{day .PaidAt}}.</p>
{{end}}
{{if .Rooms}}<table>
  <thead><tr><th>Property</th><th>Room</th><th>Levy expires</th><th>Days remaining</th></tr></thead>
  <tbody>{{range .Rooms}}<tr>
    <td>{{.PropertyName}}</td><td>{{.Room.RoomNumber}}</td><td>{{date .Room.LevyExpiryDate}}</td><td>{{.DaysRemaining}}</td>
  </tr>{{end}}</tbody>
</table>{{end}}
{{with .BookingPayment}}
  <p>{{money .Amount}} paid by {{.Method}} on {{day .PaidAt}}.</p>
  <p>{{.Booking.Property.Name}}, room {{.Booking.Room.RoomNumber}}, {{day .Booking.StartDate}} to {{day .Booking.EndDate}}.</p>
{{end}}
</section>{{end}}`)

// PaymentConfirmation renders the receipt for a levy or booking payment
func PaymentConfirmation(props PaymentConfirmationProps) templ.Component {
	return component(confirmationTmpl, "base", props)
}
