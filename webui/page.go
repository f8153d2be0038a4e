package webui

import (
	"html/template"

	"github.com/ipfs-force-community/onet-airdrop/claimscreen"
	"github.com/ipfs-force-community/onet-airdrop/connector"
)

const (
	pageTitle       = "ONET Airdrop"
	pageDescription = "Klaim token kucing ONET gratis di jaringan Tea Sepolia"
)

type pageButton struct {
	Method string
	Label  string
}

type pageData struct {
	Title         string
	Description   string
	View          claimscreen.View
	Buttons       []pageButton
	Notifications []claimscreen.Notification
	// Query is appended to every form action, it keeps the token of remote users.
	Query string
}

func newPageData(view claimscreen.View, notes []claimscreen.Notification, query string) pageData {
	data := pageData{
		Title:         pageTitle,
		Description:   pageDescription,
		View:          view,
		Notifications: notes,
		Query:         query,
	}
	for _, name := range view.ConnectMethods {
		m, err := connector.ParseMethod(name)
		if err != nil {
			continue
		}
		data.Buttons = append(data.Buttons, pageButton{Method: m.String(), Label: "Connect with " + m.Label()})
	}
	return data
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
{{- if .View.Loading}}
<meta http-equiv="refresh" content="1">
{{- end}}
</head>
<body>
<main>
<h1>Airdrop Token ONET</h1>
{{- range .Notifications}}
<p class="notification {{.Kind}}" role="alert">{{.Message}}</p>
{{- end}}
{{- if .View.Loading}}
<p>Memuat...</p>
{{- if .View.CanCancel}}
<form method="post" action="/cancel{{$.Query}}"><button type="submit">Batal</button></form>
{{- end}}
{{- end}}
{{- if .View.Account}}
<p>Akun: {{.View.Account}}</p>
{{- if .View.Claimed}}
<p>Anda sudah klaim ONET.</p>
{{- else if .View.CanClaim}}
<form method="post" action="/claim{{$.Query}}"><button type="submit">Klaim Sekarang</button></form>
{{- end}}
{{- if .View.TxHash}}
<p class="tx">{{.View.TxHash}}</p>
{{- end}}
{{- else if not .View.Loading}}
{{- range .Buttons}}
<form method="post" action="/connect/{{.Method}}{{$.Query}}"><button type="submit">{{.Label}}</button></form>
{{- end}}
{{- end}}
</main>
</body>
</html>
`))
