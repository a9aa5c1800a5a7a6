package handler

import "html/template"

var panelTmpl = template.Must(template.New("panel").Funcs(template.FuncMap{
    "clock": clock,
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Venue}} Admin</title>
    <meta charset="utf-8">
    <meta http-equiv="refresh" content="5">
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        body { background: #121212; color: #fff; font-family: sans-serif; padding: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #333; padding: 10px; text-align: left; }
        th { background: #333; }
        .chart-box { width: 300px; margin: 0 auto; }
        .summary { text-align: center; color: #aaa; }
    </style>
</head>
<body>
    <h1>🦁 {{.Venue}} Live Panel</h1>
    <p class="summary">{{.Admitted}} / {{.Capacity}} ({{.Percent}}%)</p>
    <div class="chart-box"><canvas id="split"></canvas></div>
    <table>
        <tr><th>ID</th><th>Hora</th><th>Whatsapp</th><th>Nombre</th><th>Tipo</th><th>Pax</th><th>RRPP</th></tr>
        {{range .Rows}}<tr><td>{{.ID}}</td><td>{{clock .CreatedAt}}</td><td>{{.Sender}}</td><td>{{.FullName}}</td><td>{{.Kind}}</td><td>{{.PartySize}}</td><td>{{.Referral}}</td></tr>
        {{end}}
    </table>
    <script>
        new Chart(document.getElementById('split'), {
            type: 'doughnut',
            data: { labels: ['General', 'VIP'], datasets: [{ data: [{{.General}}, {{.VIP}}], backgroundColor: ['#3498db', '#e67e22'] }] }
        });
    </script>
</body>
</html>
`))

var ticketTmpl = template.Must(template.New("ticket").Funcs(template.FuncMap{
    "clock": clock,
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Venue}} Ticket</title>
    <meta charset="utf-8">
    <style>
        body { background: #121212; color: #fff; font-family: sans-serif; padding: 40px; text-align: center; }
        .ok { color: #2ecc71; }
        .bad { color: #e74c3c; }
    </style>
</head>
<body>
{{if .Valid}}
    <h1 class="ok">✅ Ticket válido</h1>
    <h2>{{.Reservation.FullName}}</h2>
    <p>{{.Reservation.Kind}} · {{.Reservation.PartySize}} pax · #{{.Reservation.ID}}</p>
    <p>Reservado a las {{clock .Reservation.CreatedAt}}</p>
{{else}}
    <h1 class="bad">⛔ Ticket inválido</h1>
    <p>{{.Reason}}</p>
{{end}}
</body>
</html>
`))
