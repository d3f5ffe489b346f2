/*
Copyright 2025 Artcurate Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/artcurate/curate"
	"github.com/artcurate/curate/api/middleware"
	"github.com/artcurate/curate/config"
	"github.com/artcurate/curate/internal/moderr"
	"github.com/artcurate/curate/model"
)

type Api struct {
	curator *curate.Curator
	router  *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/audit/:category/start", a.AuditStart)
	router.POST("/audit/:category/next", a.AuditNext)
	router.POST("/audit/:category/approve", a.AuditApprove)
	router.POST("/audit/:category/reject", a.AuditReject)
	router.POST("/audit/:category/cancel", a.AuditCancel)
	router.GET("/audit/:category/stats", a.AuditStats)

	router.POST("/push/:category/start", a.PushStart)
	router.POST("/push/:category/next", a.PushNext)
	router.POST("/push/:category/finalize", a.PushFinalize)

	return a.router
}

func NewAPI(cu *curate.Curator) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{curator: cu, router: r}
}

// category resolves the :category route parameter to a reviewable category.
func category(c *gin.Context) (model.Category, bool) {
	raw, passed := c.Params.Get("category")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required. pass it in the route /:category"})
		return "", false
	}
	cat, err := model.ParseCategory(raw)
	if err != nil || !cat.Reviewable() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category, expected one of SFW, NSFW, R18"})
		return "", false
	}
	return cat, true
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	c.JSON(moderr.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
}
