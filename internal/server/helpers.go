package server

import (
	"encoding/json"
	"errors"

	"social/internal/models"
	"social/internal/query"
	"social/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Pipelines per collection. Only the listed filter terms narrow a list.
var (
	mediaPipeline = query.Pipeline{Filters: map[string]string{"tag": "tag"}}
	postPipeline  = query.Pipeline{Filters: map[string]string{"authorId": "content.authorId"}}
	plainPipeline = query.Pipeline{}
)

// sourcesSeparator splits the "sources" body field into attachments.
const sourcesSeparator = "&"

// bind parses the request body into dst and checks its validate tags. An
// absent required key becomes a FieldError.
func bind(c *fiber.Ctx, dst any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return models.NewValueError("Invalid request body")
		}
	}
	if err := validation.Struct(dst); err != nil {
		var v *validation.Violation
		if errors.As(err, &v) {
			if v.Missing() {
				return models.NewFieldError(v.Field)
			}
			return models.NewValueError(v.Error())
		}
		return models.NewInternalError(err)
	}
	return nil
}

// pathFrom collects the route ids of the request.
func pathFrom(c *fiber.Ctx) models.Path {
	return models.Path{
		UserID:         c.Params("userId"),
		FileID:         c.Params("fileId"),
		PostID:         c.Params("postId"),
		CommentID:      c.Params("commentId"),
		VoteID:         c.Params("voteId"),
		ConversationID: c.Params("conversationId"),
		MessageID:      c.Params("messageId"),
	}
}

// callerID is the authenticated user set by AuthRequired.
func callerID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// orCaller falls back to the authenticated user when id is blank.
func orCaller(c *fiber.Ctx, id string) string {
	if id == "" {
		return callerID(c)
	}
	return id
}

func splitSources(raw string) []string {
	return models.SplitList(raw, sourcesSeparator)
}

func splitSourcesPtr(raw *string) *[]string {
	if raw == nil {
		return nil
	}
	sources := splitSources(*raw)
	return &sources
}

func directives(c *fiber.Ctx) query.Directives {
	raw := map[string]string{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		raw[string(k)] = string(v)
	})
	return query.Parse(raw)
}

// sendOne writes {status: "pass", key: item}, projected by a select directive.
func sendOne(c *fiber.Ctx, status int, key string, item any) error {
	d := directives(c)
	if len(d.Select) == 0 {
		return c.Status(status).JSON(fiber.Map{"status": "pass", key: item})
	}
	doc, err := json.Marshal(item)
	if err != nil {
		return models.NewInternalError(err)
	}
	return c.Status(status).JSON(fiber.Map{"status": "pass", key: query.Select(doc, d.Select)})
}

// sendList runs the list pipeline over items and writes
// {status: "pass", count, key: items}.
func sendList[T any](c *fiber.Ctx, key string, items []T, p query.Pipeline, d query.Directives) error {
	docs, err := query.Documents(items)
	if err != nil {
		return models.NewInternalError(err)
	}
	out := p.Run(docs, d)
	return c.JSON(fiber.Map{"status": "pass", "count": len(out), key: out})
}

func sendDeleted(c *fiber.Ctx, res models.DeleteResult) error {
	return c.JSON(fiber.Map{"status": "pass", "response": res})
}
