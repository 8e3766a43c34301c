package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// GetRecommendations godoc
// @Summary Personalized recommendations
// @Description Ranks the catalog against a skin profile. When the LLM is available it selects up to five products; otherwise the content, popularity or hybrid strategy ranks them.
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param request body object{skinProfile=object{skinType=string,concerns=[]string,preferredCategories=[]string,budgetRange=object{min=number,max=number},excludeProducts=[]int},limit=int,strategy=string} true "Skin profile"
// @Success 200 {object} object{success=bool,data=object{products=array,count=int,reasons=object}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 500 {object} object{success=bool,error=string}
// @Router /api/recommendations [post]
func (h *RecommendationHandler) GetRecommendationsDoc() {}

// QuickRecommendations godoc
// @Summary Quick recommendations
// @Description Query-string variant of the recommendation endpoint
// @Tags Recommendations
// @Produce json
// @Param skinType query string false "dry, oily, combination, sensitive, normal"
// @Param category query string false "Preferred product category"
// @Param strategy query string false "content | popularity | hybrid" default(hybrid)
// @Param limit query int false "Number of recommendations (1-50)" default(10)
// @Success 200 {object} object{success=bool,data=object{products=array,count=int,reasons=object}}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/recommendations/quick [get]
func (h *RecommendationHandler) QuickRecommendationsDoc() {}

// AnalyzeFace godoc
// @Summary Facial analysis
// @Description Infers skin type and concerns from a face photo, then recommends products with the hybrid strategy. Without the LLM the supplied skin type is used.
// @Tags Analysis
// @Accept json
// @Produce json
// @Param request body object{imageUrl=string,skinType=string,detectedConcerns=[]string,budgetRange=object{min=number,max=number},limit=int} true "Image as data URI, URL or base64"
// @Success 200 {object} object{success=bool,data=object{skinType=string,detectedConcerns=[]string,analysisResult=string,recommendations=object}}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/facial-analysis [post]
func (h *RecommendationHandler) AnalyzeFaceDoc() {}

// CheckIngredients godoc
// @Summary Ingredient conflict analysis
// @Description Asks the LLM whether the ingredients of two or more products conflict
// @Tags Analysis
// @Accept json
// @Produce json
// @Param request body object{products=[]object{id=int,name=string,ingredients=string}} true "Products to compare"
// @Success 200 {object} object{success=bool,data=object{conflictDetected=bool,conflictDetails=string,safetyWarning=string,alternatives=[]string}}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /api/ingredient-conflict [post]
func (h *RecommendationHandler) CheckIngredientsDoc() {}

// Health godoc
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} object{ok=bool,service=string,version=string,productStoreConnected=bool,llmClient=object}
// @Router /api/health [get]
func (h *RecommendationHandler) HealthDoc() {}
