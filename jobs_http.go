package main

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/montazreklam/jobs_backend/jobcache"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/models/reports"
	"github.com/montazreklam/jobs_backend/utils"
	"github.com/montazreklam/jobs_backend/workflow"
)

// respondError maps the remote error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case utils.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case utils.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case utils.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case utils.IsTransient(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
	c.Error(err)
}

func requireAdmin(c *gin.Context) bool {
	isAdmin, ok := utils.GetIsAdminFromContext(c.Request.Context())
	if !ok || !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return false
	}
	return true
}

func registerAuthRoutes(r *gin.Engine) {
	r.POST("/auth/login", func(c *gin.Context) {
		var body struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		info, err := models.Login(c.Request.Context(), body.Username, body.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "username or password is incorrect"})
			return
		}
		c.JSON(http.StatusOK, info)
	})

	r.POST("/auth/logout", func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	})

	r.POST("/auth/change-password", func(c *gin.Context) {
		var body struct {
			OldPassword string `json:"old_password" binding:"required"`
			NewPassword string `json:"new_password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := models.ChangePassword(c.Request.Context(), body.OldPassword, body.NewPassword); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	// Machine clients (the sync worker, integrations) authenticate with a
	// bearer JWT instead of a browser session; admins mint those here.
	r.POST("/auth/service-token", func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		var body struct {
			UserId int `json:"user_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := models.GetUser(c.Request.Context(), body.UserId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if user.IsActive == nil || !*user.IsActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user is inactive"})
			return
		}
		token, err := utils.JwtGenerate(user.ID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	users := r.Group("/users")
	{
		users.GET("", func(c *gin.Context) {
			if !requireAdmin(c) {
				return
			}
			result, err := models.GetAllUsers(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, result)
		})
		users.POST("", func(c *gin.Context) {
			if !requireAdmin(c) {
				return
			}
			var input models.NewUser
			if err := c.ShouldBindJSON(&input); err != nil {
				if fields := utils.ProcessValidationErrors(err); len(fields) > 0 {
					c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
					return
				}
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user, err := models.CreateUser(c.Request.Context(), &input)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, user)
		})
		users.GET("/:id", func(c *gin.Context) {
			if !requireAdmin(c) {
				return
			}
			id, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
				return
			}
			user, err := models.GetUser(c.Request.Context(), id)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.JSON(http.StatusOK, user)
		})
		users.PUT("/:id", func(c *gin.Context) {
			if !requireAdmin(c) {
				return
			}
			id, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
				return
			}
			var input models.User
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			input.ID = id
			user, err := input.UpdateUser(id)
			if err != nil {
				if errors.Is(err, utils.ErrorRecordNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
					return
				}
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user.PrepareGive()
			c.JSON(http.StatusOK, user)
		})
		users.DELETE("/:id", func(c *gin.Context) {
			if !requireAdmin(c) {
				return
			}
			id, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
				return
			}
			var input models.User
			user, err := input.DeleteUser(id)
			if err != nil {
				if errors.Is(err, utils.ErrorRecordNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			user.PrepareGive()
			c.JSON(http.StatusOK, user)
		})
	}
}

// updatableJobFields is the whitelist of content fields a client may patch
// directly. Placement and derived fields go through their own operations.
var updatableJobFields = map[string]bool{
	"title":            true,
	"contact_name":     true,
	"contact_phone":    true,
	"contact_email":    true,
	"address":          true,
	"scope_of_work":    true,
	"completion_notes": true,
}

func registerJobRoutes(r *gin.Engine, wf *workflow.Workflow, cache *jobcache.Store) {
	// The board view reads straight from the cache; the startup reload and
	// every mutation keep it aligned with the store.
	r.GET("/board", func(c *gin.Context) {
		all, err := cache.Load(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		byColumn := map[models.JobColumn][]*models.Job{}
		for _, job := range all {
			byColumn[job.BoardColumn] = append(byColumn[job.BoardColumn], job)
		}
		type boardColumn struct {
			Column models.JobColumn `json:"column"`
			Jobs   []*models.Job    `json:"jobs"`
		}
		columns := models.BoardColumns()
		out := make([]boardColumn, 0, len(columns))
		for _, col := range columns {
			colJobs := byColumn[col]
			sort.SliceStable(colJobs, func(i, j int) bool {
				return colJobs[i].BoardOrder < colJobs[j].BoardOrder
			})
			if colJobs == nil {
				colJobs = []*models.Job{}
			}
			out = append(out, boardColumn{Column: col, Jobs: colJobs})
		}
		c.JSON(http.StatusOK, gin.H{"columns": out})
	})

	jobs := r.Group("/jobs")

	jobs.GET("", func(c *gin.Context) {
		var filter models.JobFilter
		if s := c.Query("status"); s != "" {
			status, ok := models.ParseJobStatus(s)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			filter.Status = &status
		}
		if col := c.Query("column"); col != "" {
			column, ok := models.ParseJobColumn(col)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column"})
				return
			}
			filter.Column = &column
		}
		filter.Search = c.Query("search")
		filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
		filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

		result, total, err := models.PaginateJobs(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"jobs": result, "total": total})
	})

	jobs.GET("/:id", func(c *gin.Context) {
		job, err := models.GetJob(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	})

	jobs.POST("", func(c *gin.Context) {
		var input models.NewJob
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		job, err := wf.Create(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, job)
	})

	jobs.PUT("/:id", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fields := map[string]interface{}{}
		for key, value := range body {
			if updatableJobFields[key] {
				fields[key] = value
			}
		}
		if len(fields) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields in payload"})
			return
		}
		ctx := c.Request.Context()
		if err := models.UpdateJobFields(ctx, c.Param("id"), fields); err != nil {
			respondError(c, err)
			return
		}
		job, err := models.GetJob(ctx, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if err := cache.Put(ctx, job); err != nil {
			c.Error(err)
		}
		c.JSON(http.StatusOK, job)
	})

	jobs.PUT("/:id/checklist", func(c *gin.Context) {
		var items []*models.ChecklistItem
		if err := c.ShouldBindJSON(&items); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		if err := models.ReplaceJobChecklist(ctx, c.Param("id"), items); err != nil {
			respondError(c, err)
			return
		}
		job, err := models.GetJob(ctx, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if err := cache.Put(ctx, job); err != nil {
			c.Error(err)
		}
		c.JSON(http.StatusOK, job)
	})

	jobs.POST("/:id/move-up", func(c *gin.Context) {
		if err := wf.MoveUp(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	jobs.POST("/:id/move-down", func(c *gin.Context) {
		if err := wf.MoveDown(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	jobs.POST("/:id/move-to-column", func(c *gin.Context) {
		var body struct {
			Column models.JobColumn `json:"column" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := wf.MoveToColumn(c.Request.Context(), c.Param("id"), body.Column); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	jobs.POST("/:id/complete", func(c *gin.Context) {
		var evidence workflow.CompletionEvidence
		if err := c.ShouldBindJSON(&evidence); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report, err := wf.Complete(c.Request.Context(), c.Param("id"), evidence)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	})

	jobs.POST("/:id/archive", func(c *gin.Context) {
		job, err := wf.Archive(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	})

	jobs.POST("/:id/duplicate", func(c *gin.Context) {
		job, err := wf.Duplicate(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, job)
	})

	jobs.DELETE("/:id", func(c *gin.Context) {
		if err := wf.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	jobs.PUT("/:id/payment-status", func(c *gin.Context) {
		var body struct {
			Status    string `json:"status" binding:"required"`
			Confirmed bool   `json:"confirmed"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status, ok := models.ParsePaymentStatus(body.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment status: " + body.Status})
			return
		}
		// The confirmer surfaces the inferred reason in the response when the
		// client has not already confirmed the overwrite.
		var guardReason string
		confirm := func(reason string) bool {
			guardReason = reason
			return body.Confirmed
		}
		applied, err := wf.ChangePaymentStatus(
			c.Request.Context(), c.Param("id"), status, models.OriginManual, confirm)
		if err != nil {
			respondError(c, err)
			return
		}
		if !applied {
			c.JSON(http.StatusConflict, gin.H{
				"applied":               false,
				"confirmation_required": true,
				"reason":                guardReason,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"applied": true})
	})

	jobs.GET("/:id/history", func(c *gin.Context) {
		id := c.Param("id")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		histories, err := models.GetHistories(c.Request.Context(), &id, nil, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, histories)
	})

	r.GET("/reports/jobs-register/export", func(c *gin.Context) {
		year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		fileName := fmt.Sprintf("jobs-register-%d.xlsx", year)
		c.Header("Content-Disposition", "attachment; filename="+fileName)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := reports.ExportJobsRegisterXLSX(c.Request.Context(), c.Writer, year); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	})
}
