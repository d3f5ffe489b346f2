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

func (a Api) PushStart(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}

	size, err := a.curator.PushStart(c.Request.Context(), cat)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": cat, "push_size": size})
}

// PushNext pops an item for distribution. The caller owns delivery and
// reports it back through PushFinalize; an unreported item keeps its PASS
// record.
func (a Api) PushNext(c *gin.Context) {
	cat, ok := category(c)
	if !ok {
		return
	}

	packet, err := a.curator.PushNext(c.Request.Context(), cat)
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

func (a Api) PushFinalize(c *gin.Context) {
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

	if err := a.curator.PushFinalize(c.Request.Context(), cat, ref.ToItemKey()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"finalized": true})
}
