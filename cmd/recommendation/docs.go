package main

// @title Recommendation Service API
// @version 1.0
// @description Skin-profile product recommendations, facial analysis and ingredient conflict checks

// @host localhost:8001
// @BasePath /
