package pages

import (
	"github.com/a-h/templ"

	"campusstay_echo/internal/models"
)

type preferencePopupData struct {
	User models.User
	Pref models.UserNotifPreference
}

var preferenceTmpl = standalonePage("preference", `<div class="modal" id="preference-modal">
<h2>Notifications for {{.User.Name}}</h2>
<form method="post" action="/account/notifications" hx-post="/account/notifications" hx-target="#preference-modal" hx-swap="outerHTML">
  <label>Channel
    <select name="channel">
      <option value="email" {{if eq (print .Pref.Channel) "email"}}selected{{end}}>Email</option>
      <option value="whatsapp" {{if eq (print .Pref.Channel) "whatsapp"}}selected{{end}}>WhatsApp</option>
      <option value="sms" {{if eq (print .Pref.Channel) "sms"}}selected{{end}}>SMS</option>
      <option value="none" {{if eq (print .Pref.Channel) "none"}}selected{{end}}>None</option>
    </select>
  </label>
  <label>WhatsApp target
    <select name="whatsapp_target_type">
      <option value="personal" {{if eq .Pref.WhatsappTargetType "personal"}}selected{{end}}>Personal</option>
      <option value="group" {{if eq .Pref.WhatsappTargetType "group"}}selected{{end}}>Group</option>
    </select>
  </label>
  <label>WhatsApp group ID <input name="whatsapp_group_id" value="{{.Pref.WhatsappGroupID}}"></label>
  <button type="submit">Save</button>
</form>
</div>`)

var preferenceSuccessTmpl = standalonePage("preference_success", `<div class="modal" id="preference-modal"><p>Notification preference saved.</p></div>`)

// UserPreferencePopup is the notification preference form shown in a modal
func UserPreferencePopup(user models.User, pref models.UserNotifPreference) templ.Component {
	return component(preferenceTmpl, "preference", preferencePopupData{User: user, Pref: pref})
}

func UserPreferenceSuccess() templ.Component {
	return component(preferenceSuccessTmpl, "preference_success", nil)
}
