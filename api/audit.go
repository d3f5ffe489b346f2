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

	model2 "github.com/artcurate/curate/api/model"

	"github.com/gin-gonic/gin"
)

func (a Api) AuditStart(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}

	size, err := a.curator.AuditStart(c.Request.Context(), cat)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": cat, "audit_size": size})
}

func (a Api) AuditNext(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}

	packet, err := a.curator.AuditNext(c.Request.Context(), cat)
	if err != nil {
		respondError(c, err)
		return
	}
	if packet == nil {
		c.JSON(http.StatusOK, gin.H{"category": cat, "empty": true})
		return
	}

	c.JSON(http.StatusOK, packet)
}

func (a Api) AuditApprove(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}

	var ref model2.ItemRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := ref.ValidateItemRef(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	decision, err := a.curator.AuditApprove(c.Request.Context(), cat, ref.ToItemKey())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func (a Api) AuditReject(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}

	var req model2.RejectItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := req.ValidateRejectItem(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	decision, err := a.curator.AuditReject(c.Request.Context(), cat, req.ToItemKey(), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func (a Api) AuditCancel(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}

	var ref model2.ItemRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}
	if err := ref.ValidateItemRef(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := a.curator.AuditCancel(c.Request.Context(), cat, ref.ToItemKey()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (a Api) AuditStats(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	engine := a.curator.Engine()

	auditSize, err := engine.AuditSize(ctx, cat)
	if err != nil {
		respondError(c, err)
		return
	}
	pendingSize, err := engine.PendingSize(ctx, cat)
	if err != nil {
		respondError(c, err)
		return
	}
	pushSize, err := engine.PushSize(ctx, cat)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":     cat,
		"audit_size":   auditSize,
		"pending_size": pendingSize,
		"push_size":    pushSize,
	})
}
