package pages

import "github.com/a-h/templ"

type LoginProps struct {
	FirebaseAPIKey     string
	FirebaseAuthDomain string
	FirebaseProjectID  string
	Error              string
}

var loginTmpl = standalonePage("login", `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Log in | CampusStay</title>
<link rel="stylesheet" href="/static/app.css"></head>
<body class="public">
<h1>Log in</h1>
{{if .Error}}<div class="flash flash-error">{{.Error}}</div>{{end}}
<form id="login-form">
  <input type="email" name="email" placeholder="Email" required>
  <input type="password" name="password" placeholder="Password" required>
  <button type="submit">Log in</button>
</form>
<script type="module">
import { initializeApp } from "https://www.gstatic.com/firebasejs/10.12.0/firebase-app.js";
import { getAuth, signInWithEmailAndPassword } from "https://www.gstatic.com/firebasejs/10.12.0/firebase-auth.js";
const app = initializeApp({ apiKey: "{{.FirebaseAPIKey}}", authDomain: "{{.FirebaseAuthDomain}}", projectId: "{{.FirebaseProjectID}}" });
const auth = getAuth(app);
document.getElementById("login-form").addEventListener("submit", async (e) => {
  e.preventDefault();
  const f = e.target;
  const cred = await signInWithEmailAndPassword(auth, f.email.value, f.password.value);
  const token = await cred.user.getIdToken();
  const res = await fetch("/auth/login", { method: "POST", headers: { Authorization: "Bearer " + token } });
  if (res.ok) { window.location = "/"; }
});
</script>
</body></html>`)

func Login(props LoginProps) templ.Component {
	return component(loginTmpl, "login", props)
}

type ActivateProps struct {
	Token string
	Error string
}

var activateTmpl = standalonePage("activate", `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Activate account | CampusStay</title>
<link rel="stylesheet" href="/static/app.css"></head>
<body class="public">
<h1>Activate your account</h1>
{{if .Error}}<div class="flash flash-error">{{.Error}}</div>{{end}}
<form method="post" action="/accounts/activate">
  <input type="hidden" name="token" value="{{.Token}}">
  <input type="password" name="password" placeholder="Choose a password" minlength="8" required>
  <button type="submit">Activate</button>
</form>
</body></html>`)

// Activate is the form an invited student uses to set a password
func Activate(props ActivateProps) templ.Component {
	return component(activateTmpl, "activate", props)
}
