package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"trip-service/internal/auth"
	"trip-service/internal/config"
	"trip-service/internal/db"
	"trip-service/internal/handlers"
	"trip-service/internal/middleware"
	"trip-service/internal/observability"
	"trip-service/internal/rabbitmq"
	"trip-service/internal/repositories"
	"trip-service/internal/telemetry"
	"trip-service/internal/ws"
	"trip-service/pkg/logger"
)

const serviceName = "trip-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	appLogger := logger.New(cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL, cfg.MigrationsPath, appLogger)
	if err != nil {
		appLogger.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), serviceName, cfg.OTLPEndpoint)
	if err != nil {
		appLogger.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, appLogger)
	defer publisher.Close()
	appLogger.Infof("audit publisher mode=%s", rabbitmq.PublisherMode(publisher))

	audit := telemetry.NewAuditEmitter(publisher, "audit.trip", serviceName, cfg.Environment, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	userRepo := repositories.NewUserRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	activityRepo := repositories.NewActivityRepo(database)
	expenseRepo := repositories.NewExpenseRepo(database)
	calendarRepo := repositories.NewCalendarRepo(database)

	hub := ws.NewHub()

	authHandler := handlers.NewAuthHandler(userRepo, jwtManager, audit)
	groupHandler := handlers.NewGroupHandler(groupRepo, userRepo, hub, audit)
	activityHandler := handlers.NewActivityHandler(activityRepo, groupRepo, expenseRepo, hub, audit)
	expenseHandler := handlers.NewExpenseHandler(expenseRepo, activityRepo, groupRepo, hub, audit)
	calendarHandler := handlers.NewCalendarHandler(calendarRepo, groupRepo)

	groupFeed := ws.NewGroupFeedHandler(hub, groupRepo, jwtManager)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(jwtManager)

	api := router.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", authMiddleware, authHandler.Me)

	groups := api.Group("/groups", authMiddleware)
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.ListGroups)
	groups.GET("/:group_id", groupHandler.GetGroup)
	groups.PUT("/:group_id", groupHandler.UpdateGroup)
	groups.DELETE("/:group_id", groupHandler.DeleteGroup)

	groups.GET("/:group_id/members", groupHandler.ListMembers)
	groups.POST("/:group_id/members", groupHandler.AddMember)
	groups.POST("/:group_id/members/batch", groupHandler.AddMembers)
	groups.DELETE("/:group_id/members/:member_id", groupHandler.RemoveMember)
	groups.PUT("/:group_id/members/:member_id/role", groupHandler.UpdateMemberRole)
	groups.POST("/:group_id/leave", groupHandler.LeaveGroup)
	groups.GET("/:group_id/leave/status", groupHandler.LeaveStatus)
	groups.GET("/:group_id/available-users", groupHandler.ListAvailableUsers)

	groups.GET("/:group_id/activities", activityHandler.ListActivities)
	groups.POST("/:group_id/activities/events", activityHandler.CreateEvent)
	groups.POST("/:group_id/activities/trips", activityHandler.CreateTrip)
	groups.PUT("/:group_id/activities/reorder", activityHandler.ReorderActivities)
	groups.GET("/:group_id/activities/:activity_id", activityHandler.GetActivity)
	groups.GET("/:group_id/activities/:activity_id/details", activityHandler.GetActivityDetails)
	groups.PUT("/:group_id/activities/:activity_id/event", activityHandler.UpdateEvent)
	groups.PUT("/:group_id/activities/:activity_id/trip", activityHandler.UpdateTrip)
	groups.DELETE("/:group_id/activities/:activity_id", activityHandler.DeleteActivity)
	groups.POST("/:group_id/activities/:activity_id/toggle-completion", activityHandler.ToggleCompletion)

	groups.GET("/:group_id/activities/:activity_id/participants", activityHandler.ListParticipants)
	groups.POST("/:group_id/activities/:activity_id/participants", activityHandler.AddParticipant)
	groups.PUT("/:group_id/activities/:activity_id/participants/:participant_id", activityHandler.UpdateParticipant)
	groups.DELETE("/:group_id/activities/:activity_id/participants/:participant_id", activityHandler.RemoveParticipant)

	groups.GET("/:group_id/activities/:activity_id/expenses", expenseHandler.ListExpenses)
	groups.POST("/:group_id/activities/:activity_id/expenses", expenseHandler.CreateExpense)
	groups.GET("/:group_id/activities/:activity_id/expenses/:expense_id", expenseHandler.GetExpense)
	groups.DELETE("/:group_id/activities/:activity_id/expenses/:expense_id", expenseHandler.DeleteExpense)
	groups.PUT("/:group_id/activities/:activity_id/expenses/:expense_id/splits/:split_id", expenseHandler.MarkSplitPaid)

	groups.GET("/:group_id/calendar", calendarHandler.GetCalendar)
	groups.GET("/:group_id/calendar/range", calendarHandler.GetCalendarRange)
	groups.GET("/:group_id/calendar/month", calendarHandler.GetCalendarMonth)
	groups.GET("/:group_id/calendar/week", calendarHandler.GetCalendarWeek)

	router.GET("/ws/groups/:group_id", groupFeed.Handle)

	appLogger.Infof("listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		appLogger.Fatalf("server error: %v", err)
	}
}
