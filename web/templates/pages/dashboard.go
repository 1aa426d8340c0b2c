package pages

import (
	"github.com/a-h/templ"

	"campusstay_echo/internal/models"
	"campusstay_echo/web/templates/shared"
)

type OwnerDashboardProps struct {
	shared.Layout
	Properties []models.Property
	Documents  *models.OwnerDocumentBundle
	LevyDue    int
}

var ownerDashboardTmpl = layoutPage(`<h1>My properties</h1>
{{if .LevyDue}}<section class="levy-due">
  <p>{{.LevyDue}} room(s) need a levy payment before they are listed.</p>
  <form method="post" action="/owner/levy/intents" class="inline" data-checkout><button type="submit">Pay levy</button></form>
</section>{{end}}
<section class="documents">
  <h2>Verification documents</h2>
  {{with .Documents}}<p>Version {{.Version}}: <strong>{{.Status}}</strong>{{if .ReviewNote}} ({{.ReviewNote}}){{end}}</p>
  {{else}}<p>No documents submitted yet.</p>{{end}}
  <form method="post" action="/owner/documents" enctype="multipart/form-data">
    <label>National ID <input type="file" name="national_id" required></label>
    <label>Proof of ownership <input type="file" name="ownership_proof" required></label>
    <label>Utility bill <input type="file" name="utility_bill" required></label>
    <label>Passport photo <input type="file" name="passport_photo" required></label>
    <button type="submit">Submit documents</button>
  </form>
</section>
{{range .Properties}}<section class="property">
  <h2>{{.Name}}</h2>
  <p>{{.Address}}</p>
  <table>
    <thead><tr><th>Room</th><th>Gender</th><th>Occupancy</th><th>Status</th><th>Levy</th><th>Levy expires</th></tr></thead>
    <tbody>{{range .Rooms}}<tr>
      <td>{{.RoomNumber}}</td><td>{{.Gender}}</td><td>{{.CurrentOccupancy}}/{{.Capacity}}</td>
      <td>{{.Status}}</td><td>{{.LevyPaymentStatus}}</td><td>{{date .LevyExpiryDate}}</td>
    </tr>{{else}}<tr><td colspan="6">No rooms yet.</td></tr>{{end}}</tbody>
  </table>
  <form method="post" action="/owner/rooms" class="room-form">
    <input type="hidden" name="property_id" value="{{.ID}}">
    <input name="room_number" placeholder="Room number" required>
    <input name="capacity" type="number" min="1" max="10" placeholder="Capacity" required>
    <select name="gender"><option value="male">Male</option><option value="female">Female</option></select>
    <button type="submit">Add room</button>
  </form>
</section>{{else}}<p>You have no properties yet.</p>{{end}}`)

// OwnerDashboard lists the owner's properties and rooms with their levy state
func OwnerDashboard(props OwnerDashboardProps) templ.Component {
	return component(ownerDashboardTmpl, "base", props)
}

type StudentDashboardProps struct {
	shared.Layout
	Bookings   []models.Booking
	Agreements []models.TenancyAgreement
}

var studentDashboardTmpl = layoutPage(`<h1>My bookings</h1>
<table>
  <thead><tr><th>Property</th><th>Room</th><th>From</th><th>To</th><th>Amount</th><th>Status</th></tr></thead>
  <tbody>{{range .Bookings}}<tr>
    <td>{{.Property.Name}}</td><td>{{.Room.RoomNumber}}</td><td>{{day .StartDate}}</td><td>{{day .EndDate}}</td>
    <td>{{money .Amount}}</td><td>{{.Status}}</td>
  </tr>{{else}}<tr><td colspan="6">No bookings yet.</td></tr>{{end}}</tbody>
</table>
{{if .Agreements}}<h2>Tenancy agreements</h2>
<ul>{{range .Agreements}}<li>{{.Title}} ({{.Property.Name}})</li>{{end}}</ul>{{end}}`)

// StudentDashboard lists the student's bookings and the agreements shared with them
func StudentDashboard(props StudentDashboardProps) templ.Component {
	return component(studentDashboardTmpl, "base", props)
}
