package main

// @title Product Service API
// @version 1.0
// @description Cosmetics catalog service with full observability (logging, tracing, metrics)

// @host localhost:8081
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
