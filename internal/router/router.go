package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskpoints/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Store   *apiHandler.StoreHandler
	Chat    *apiHandler.ChatHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, session func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	r.GET("/api/v1/welcome", handlers.Auth.Welcome)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/guest", handlers.Auth.Guest)
	r.POST("/api/v1/auth/logout", handlers.Auth.Logout)

	// Protected routes
	r.GET("/api/v1/profile", session(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile/settings", session(handlers.Profile.SaveSettings))

	r.GET("/api/v1/tasks", session(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks/{type}", session(handlers.Task.CreateTask))
	r.PUT("/api/v1/tasks/{type}/order", session(handlers.Task.ReorderTasks))
	r.POST("/api/v1/tasks/{type}/{id}/toggle", session(handlers.Task.ToggleTask))
	r.DELETE("/api/v1/tasks/{type}/{id}", session(handlers.Task.DeleteTask))
	r.GET("/api/v1/points", session(handlers.Task.GetPoints))
	r.POST("/api/v1/points", session(handlers.Task.AwardPoints))

	r.GET("/api/v1/store/items", session(handlers.Store.ListItems))
	r.POST("/api/v1/store/items", session(handlers.Store.AddItem))
	r.PUT("/api/v1/store/items/{id}", session(handlers.Store.UpdateItem))
	r.DELETE("/api/v1/store/items/{id}", session(handlers.Store.RemoveItem))
	r.POST("/api/v1/store/items/{id}/purchase", session(handlers.Store.Purchase))

	r.POST("/api/v1/chat", session(handlers.Chat.Send))
	r.POST("/api/v1/chat/operations", session(handlers.Chat.ExecuteOperation))
	r.GET("/api/v1/chat/history", session(handlers.Chat.History))
	r.GET("/api/v1/chat/sessions", session(handlers.Chat.Sessions))
	r.POST("/api/v1/chat/sessions", session(handlers.Chat.NewSession))
	r.PUT("/api/v1/chat/sessions/{id}", session(handlers.Chat.SwitchSession))
	r.DELETE("/api/v1/chat/sessions/{id}", session(handlers.Chat.DeleteSession))
	r.GET("/api/v1/chat/persona", session(handlers.Chat.GetPersona))
	r.PUT("/api/v1/chat/persona", session(handlers.Chat.SetPersona))

	return r
}
