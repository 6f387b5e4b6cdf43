package handlers

import (
	"net/http"

	"github.com/vkuznetsov/authgate/internal/handlers/render"
)

type ServiceInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

func handleRoot(info ServiceInfo) http.Handler {
	type rootResponse struct {
		Message string `json:"message"`
		Version string `json:"version"`
		Status  string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, rootResponse{
			Message: "Welcome to " + info.Name,
			Version: info.Version,
			Status:  "running",
		})
	})
}

func handleHealth(info ServiceInfo) http.Handler {
	type healthResponse struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Version     string `json:"version"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, healthResponse{
			Status:      "healthy",
			Environment: info.Environment,
			Version:     info.Version,
		})
	})
}
