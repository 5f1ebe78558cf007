package handler

import (
	"errors"
	"strconv"

	"scraper-admin/internal/models"
	"scraper-admin/internal/service"
	"scraper-admin/internal/utils"
	"scraper-admin/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type JobHandler struct {
	jobClient   *service.JobClient
	asynqClient *asynq.Client
}

func NewJobHandler(jobClient *service.JobClient, asynqClient *asynq.Client) *JobHandler {
	return &JobHandler{
		jobClient:   jobClient,
		asynqClient: asynqClient,
	}
}

// Get returns the job with its results and records paginated separately.
func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid job ID", err)
	}

	job, err := h.jobClient.GetJob(c.UserContext(), id)
	if err != nil {
		return jobError(c, err)
	}

	params := utils.GetPaginationParams(c)
	results, resultsMeta := utils.PaginateSlice(service.FilterResults(job.Results, params.Search), params.Page, params.Limit)
	records, recordsMeta := utils.PaginateSlice(service.FilterRecords(job.Records, params.Search), params.Page, params.Limit)

	detail := *job
	detail.Results = nil
	detail.Records = nil

	return utils.SuccessResponse(c, "Job retrieved successfully", fiber.Map{
		"job":                detail,
		"results":            results,
		"results_pagination": resultsMeta,
		"records":            records,
		"records_pagination": recordsMeta,
	})
}

func (h *JobHandler) Log(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid job ID", err)
	}

	job, err := h.jobClient.GetJob(c.UserContext(), id)
	if err != nil {
		return jobError(c, err)
	}
	logURL := ""
	if job.LogFileURL != nil {
		logURL = *job.LogFileURL
	}

	text, err := h.jobClient.GetLog(c.UserContext(), logURL)
	if err != nil {
		return jobError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}

// Action queues the action on the worker when Redis is available, otherwise runs it inline.
func (h *JobHandler) Action(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid job ID", err)
	}
	action, err := service.ParseJobAction(c.Params("action"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if h.asynqClient != nil {
		task, err := worker.NewJobActionTask(id, action)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build task", err)
		}
		info, err := h.asynqClient.Enqueue(task)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to queue job action", err)
		}
		return c.Status(fiber.StatusAccepted).JSON(utils.APIResponse{
			Success: true,
			Message: "Job action queued",
			Data: fiber.Map{
				"task_id": info.ID,
				"result":  models.JobActionResult{JobID: id, Action: action, Message: "queued"},
			},
		})
	}

	result, err := h.jobClient.RunAction(c.UserContext(), id, action)
	if err != nil {
		return jobError(c, err)
	}
	return utils.SuccessResponse(c, result.Message, result)
}

func (h *JobHandler) Page(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid job ID")
	}

	job, err := h.jobClient.GetJob(c.UserContext(), id)
	if err != nil {
		var upstream *service.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusNotFound, "Job not found")
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	params := utils.GetPaginationParams(c)
	records, recordsMeta := utils.PaginateSlice(service.FilterRecords(job.Records, params.Search), params.Page, params.Limit)
	results, _ := utils.PaginateSlice(service.FilterResults(job.Results, params.Search), 1, 100)

	return c.Render("jobs/detail", fiber.Map{
		"Title":      "Job " + strconv.Itoa(id),
		"Job":        job,
		"Records":    records,
		"Pagination": recordsMeta,
		"Results":    results,
		"Search":     params.Search,
		"Actions": []models.JobAction{
			models.JobActionInitialSort,
			models.JobActionSearchSort,
			models.JobActionMatchAISort,
			models.JobActionRestartFailedBatch,
			models.JobActionGenerateDownload,
			models.JobActionProcessAI,
		},
	}, "layouts/base")
}

func jobError(c *fiber.Ctx, err error) error {
	var validation *service.ValidationError
	var upstream *service.UpstreamError
	switch {
	case errors.As(err, &validation):
		return utils.ErrorResponse(c, fiber.StatusNotFound, validation.Error(), nil)
	case errors.As(err, &upstream):
		status := fiber.StatusBadGateway
		if upstream.StatusCode == fiber.StatusNotFound {
			status = fiber.StatusNotFound
		}
		return utils.ErrorResponse(c, status, upstream.Error(), nil)
	case errors.Is(err, service.ErrUpstreamDown):
		return utils.ErrorResponse(c, fiber.StatusBadGateway, err.Error(), nil)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Job request failed", err)
	}
}
