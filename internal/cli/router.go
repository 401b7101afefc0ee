package cli

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"account-service/internal/handlers"
	"account-service/internal/logging"
	"account-service/internal/middleware"
	"account-service/internal/observability"
	"account-service/internal/softdelete"
	"account-service/internal/ws"
)

// RouterDeps carries what the HTTP surface needs.
type RouterDeps struct {
	DB             *sqlx.DB
	Queries        softdelete.Querier
	Events         handlers.EventEmitter
	Hub            *ws.Hub
	Log            logrus.FieldLogger
	ServiceName    string
	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route and wraps it in CORS.
func NewRouter(deps RouterDeps) http.Handler {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(deps.ServiceName),
		middleware.RequestID(),
		logging.GinMiddleware(deps.Log),
		observability.HTTPMetricsMiddleware(),
	)

	accountHandler := handlers.NewAccountHandler(deps.Queries, deps.Events, deps.Log)
	messageHandler := handlers.NewMessageHandler(deps.Queries, deps.Events, deps.Log)
	eventsWS := ws.NewEventsWebSocketHandler(deps.Hub, deps.Log)

	router.POST("/accounts", accountHandler.CreateAccount)
	router.GET("/accounts", accountHandler.ListAccounts)
	router.GET("/accounts/:account_id", accountHandler.GetAccount)
	router.DELETE("/accounts/:account_id", accountHandler.DeleteAccount)
	router.POST("/accounts/:account_id/messages", messageHandler.CreateMessage)
	router.GET("/accounts/:account_id/messages", messageHandler.ListAccountMessages)

	router.GET("/messages", messageHandler.ListMessages)
	router.GET("/messages/:message_id", messageHandler.GetMessage)

	router.GET("/ws/events", eventsWS.Handle)
	handlers.RegisterOpsRoutes(router, deps.DB)

	c := cors.New(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", observability.RequestIDHeader},
		ExposedHeaders: []string{"Location", observability.RequestIDHeader},
		MaxAge:         300,
	})
	return c.Handler(router)
}
