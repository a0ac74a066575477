package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)
	return schema
}

func rawBody(t *testing.T, app *fiber.App, req *http.Request) (int, interface{}) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	return resp.StatusCode, payload
}

func TestSubmissionResponseContract(t *testing.T) {
	f := setupSubmissionApp(t, nil)
	schema := compileSchema(t, "submission_response.schema.json")

	status, payload := rawBody(t, f.app, uploadRequest(t, f.studentToken, "demo.png", pngBytes, map[string]string{"note": "first try"}))
	require.Equal(t, fiber.StatusCreated, status)
	require.NoError(t, schema.Validate(payload))

	id := payload.(map[string]interface{})["data"].(map[string]interface{})["id"].(string)
	status, payload = rawBody(t, f.app, jsonRequest(t, http.MethodPut, "/api/v1/submissions/"+id+"/review", f.teacherToken, map[string]interface{}{
		"status":         "rejected",
		"teacherComment": "Audio is missing",
	}))
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, schema.Validate(payload))
	require.NotContains(t, payload.(map[string]interface{})["data"], "pointsAwarded")
}

func TestErrorResponseContract(t *testing.T) {
	f := setupSubmissionApp(t, nil)
	schema := compileSchema(t, "error_response.schema.json")

	status, payload := rawBody(t, f.app, jsonRequest(t, http.MethodPut, "/api/v1/submissions/not-an-id/review", f.teacherToken, map[string]interface{}{"status": "approved"}))
	require.Equal(t, fiber.StatusBadRequest, status)
	require.NoError(t, schema.Validate(payload))
}
