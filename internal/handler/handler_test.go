package handler_test

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus/hooks/test"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/venue-reservation-bot/internal/attribution"
    "github.com/iliyamo/venue-reservation-bot/internal/bot"
    "github.com/iliyamo/venue-reservation-bot/internal/capacity"
    "github.com/iliyamo/venue-reservation-bot/internal/config"
    "github.com/iliyamo/venue-reservation-bot/internal/database"
    "github.com/iliyamo/venue-reservation-bot/internal/handler"
    "github.com/iliyamo/venue-reservation-bot/internal/model"
    "github.com/iliyamo/venue-reservation-bot/internal/repository"
    "github.com/iliyamo/venue-reservation-bot/internal/router"
    "github.com/iliyamo/venue-reservation-bot/internal/session"
    "github.com/iliyamo/venue-reservation-bot/internal/ticket"
    "github.com/iliyamo/venue-reservation-bot/internal/twiml"
    "github.com/iliyamo/venue-reservation-bot/internal/utils"
)

const (
    secret    = "test-secret"
    panelUser = "admin"
    panelPass = "door-staff"
)

type app struct {
    e      *echo.Echo
    repo   *repository.ReservationRepo
    issuer *ticket.Issuer
}

func newApp(t *testing.T, passwordHash string) *app {
    t.Helper()
    db, err := database.OpenSQLite(":memory:")
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))

    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })

    log, _ := test.NewNullLogger()
    repo := repository.NewReservationRepo(db)
    guard := capacity.NewGuard(repo, 150, 20)
    issuer := ticket.NewIssuer(secret, "https://venue.example", "https://qr.example/")
    engine := bot.New(bot.Deps{
        Store:    repo,
        Sessions: session.NewMemoryStore(),
        Resolver: attribution.NewResolver(model.DefaultReferralDirectory(), attribution.NewMemoryTable()),
        Guard:    guard,
        Tickets:  issuer,
        Log:      log,
    }, bot.Settings{
        VenueName:       "MOSCU",
        AdminTrigger:    "/admin",
        AdminPassword:   "pw",
        HardResetPhrase: "admin reset db",
        EscapeWords:     []string{"salir", "menu"},
    })

    e := echo.New()
    router.RegisterRoutes(e, db, nil)
    router.RegisterWebhook(e, handler.NewWebhookHandler(engine, log), config.RateLimitConfig{Enabled: false}, nil)
    router.RegisterTickets(e, handler.NewTicketHandler(issuer, repo, "MOSCU", log))
    router.RegisterOperator(e,
        handler.NewOperatorHandler(panelUser, passwordHash, secret, 5),
        handler.NewPanelHandler(repo, guard, "MOSCU", log),
        handler.NewStatsHandler(repo, guard),
        secret,
        config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 16},
        rdb,
    )
    return &app{e: e, repo: repo, issuer: issuer}
}

func (a *app) do(req *http.Request) *httptest.ResponseRecorder {
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    return rec
}

func (a *app) webhook(from, body string) *httptest.ResponseRecorder {
    form := url.Values{"From": {from}, "Body": {body}}
    req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
    return a.do(req)
}

func hash(t *testing.T) string {
    t.Helper()
    h, err := utils.HashPassword(panelPass, 4)
    require.NoError(t, err)
    return h
}

func (a *app) seed(t *testing.T, res *model.Reservation) *model.Reservation {
    t.Helper()
    require.NoError(t, a.repo.Create(context.Background(), res))
    return res
}

func TestWebhookRepliesWithTwiML(t *testing.T) {
    a := newApp(t, "")

    rec := a.webhook("whatsapp:+5491100000000", "hola")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, twiml.ContentType, rec.Header().Get(echo.HeaderContentType))
    assert.Contains(t, rec.Body.String(), "<Response><Message><Body>")
    assert.Contains(t, rec.Body.String(), "MOSCU")

    rec = a.webhook("whatsapp:+5491100000000", "1")
    assert.Contains(t, rec.Body.String(), "¿Cuántas entradas")
}

func TestWebhookRequiresSender(t *testing.T) {
    a := newApp(t, "")
    rec := a.webhook("  ", "hola")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type cannedBot struct{ reply bot.Reply }

func (b cannedBot) Handle(context.Context, string, string) bot.Reply { return b.reply }

func TestWebhookRendersEveryMessage(t *testing.T) {
    log, _ := test.NewNullLogger()
    h := handler.NewWebhookHandler(cannedBot{reply: bot.Text("uno").Add("dos", "https://qr.example/?data=x")}, log)
    e := echo.New()
    e.POST("/webhook", h.Receive)

    req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("From=a&Body=b"))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)

    body := rec.Body.String()
    assert.Equal(t, 2, strings.Count(body, "<Message>"))
    assert.Contains(t, body, "<Media>https://qr.example/?data=x</Media>")
}

func TestTicketValidation(t *testing.T) {
    a := newApp(t, "")
    res := a.seed(t, &model.Reservation{Sender: "s", FullName: "Ana Paz", Kind: model.KindGeneral, PartySize: 1})

    tok, err := a.issuer.Token(res.ID, model.KindGeneral)
    require.NoError(t, err)
    rec := a.do(httptest.NewRequest(http.MethodGet, ticket.ValidatePath+"?t="+url.QueryEscape(tok), nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "Ticket válido")
    assert.Contains(t, rec.Body.String(), "Ana Paz")

    rec = a.do(httptest.NewRequest(http.MethodGet, ticket.ValidatePath+"?t=forged", nil))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "Ticket inválido")

    wrongKind, err := a.issuer.Token(res.ID, model.KindVIP)
    require.NoError(t, err)
    rec = a.do(httptest.NewRequest(http.MethodGet, ticket.ValidatePath+"?t="+url.QueryEscape(wrongKind), nil))
    assert.Equal(t, http.StatusConflict, rec.Code)

    _, err = a.repo.DeleteAll(context.Background())
    require.NoError(t, err)
    rec = a.do(httptest.NewRequest(http.MethodGet, ticket.ValidatePath+"?t="+url.QueryEscape(tok), nil))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPanelRequiresBasicAuth(t *testing.T) {
    a := newApp(t, hash(t))
    a.seed(t, &model.Reservation{Sender: "whatsapp:+1", FullName: "Ana Paz", Kind: model.KindGeneral, PartySize: 1})
    a.seed(t, &model.Reservation{Sender: "whatsapp:+2", FullName: "<b>Beto</b> (VIP)", Kind: model.KindVIP, PartySize: 4, Referral: "matias"})

    rec := a.do(httptest.NewRequest(http.MethodGet, "/panel", nil))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    req := httptest.NewRequest(http.MethodGet, "/panel", nil)
    req.SetBasicAuth(panelUser, "wrong")
    assert.Equal(t, http.StatusUnauthorized, a.do(req).Code)

    req = httptest.NewRequest(http.MethodGet, "/panel", nil)
    req.SetBasicAuth(panelUser, panelPass)
    rec = a.do(req)
    require.Equal(t, http.StatusOK, rec.Code)
    body := rec.Body.String()
    assert.Contains(t, body, `content="5"`)
    assert.Contains(t, body, "Ana Paz")
    assert.Contains(t, body, "matias")
    assert.Contains(t, body, "&lt;b&gt;Beto&lt;/b&gt;")
    assert.Less(t, strings.Index(body, "Beto"), strings.Index(body, "Ana Paz"), "newest first")
}

func TestPanelDisabledWithoutHash(t *testing.T) {
    a := newApp(t, "")
    req := httptest.NewRequest(http.MethodGet, "/panel", nil)
    req.SetBasicAuth(panelUser, panelPass)
    assert.Equal(t, http.StatusUnauthorized, a.do(req).Code)
}

func operatorToken(t *testing.T, a *app, user, pass string) *httptest.ResponseRecorder {
    t.Helper()
    body, _ := json.Marshal(map[string]string{"username": user, "password": pass})
    req := httptest.NewRequest(http.MethodPost, "/v1/operator/token", strings.NewReader(string(body)))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    return a.do(req)
}

func TestOperatorTokenAndStats(t *testing.T) {
    a := newApp(t, hash(t))
    a.seed(t, &model.Reservation{Sender: "s1", FullName: "Ana", Kind: model.KindGeneral, PartySize: 1})
    a.seed(t, &model.Reservation{Sender: "s1", FullName: "Beto", Kind: model.KindGeneral, PartySize: 1})
    a.seed(t, &model.Reservation{Sender: "s2", FullName: "Caro (VIP)", Kind: model.KindVIP, PartySize: 8})

    assert.Equal(t, http.StatusUnauthorized, operatorToken(t, a, panelUser, "nope").Code)
    assert.Equal(t, http.StatusUnauthorized, a.do(httptest.NewRequest(http.MethodGet, "/v1/stats", nil)).Code)

    rec := operatorToken(t, a, panelUser, panelPass)
    require.Equal(t, http.StatusOK, rec.Code)
    var tok utils.AccessToken
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
    require.NotEmpty(t, tok.Token)

    stats := func() *httptest.ResponseRecorder {
        req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
        return a.do(req)
    }
    rec = stats()
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

    var got map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
    assert.EqualValues(t, 3, got["reservations"])
    assert.EqualValues(t, 2, got["general"])
    assert.EqualValues(t, 1, got["vip"])
    assert.EqualValues(t, 10, got["admitted"])
    assert.EqualValues(t, 150, got["capacity"])
    assert.EqualValues(t, 6, got["occupancy_percent"])
    assert.Equal(t, "open", got["band"])

    assert.Equal(t, "HIT", stats().Header().Get("X-Cache"))
}

func TestOperatorTokenDisabledWithoutHash(t *testing.T) {
    a := newApp(t, "")
    assert.Equal(t, http.StatusServiceUnavailable, operatorToken(t, a, panelUser, panelPass).Code)
}

func TestProbes(t *testing.T) {
    a := newApp(t, "")
    rec := a.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())

    rec = a.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"database":"ok","redis":"disabled"}`, rec.Body.String())
}
