package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/classroster/internal/archive"
	"github.com/JonMunkholm/classroster/internal/config"
	"github.com/JonMunkholm/classroster/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const validProject = `{
	"students": [
		{"id": "s1", "name": "김민수", "gender": "남", "academic_score": 480, "behavior_type": null,
		 "avoid_ids": ["s2"], "keep_ids": [], "group_ids": ["g1"]},
		{"id": "s2", "name": "이서연", "gender": "여", "academic_score": "510", "group_ids": []}
	],
	"groups": [{"id": "g1", "name": "밴드부", "members": ["s1"]}],
	"settings": {"classCount": 4}
}`

func testConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, arc core.ProjectArchive, vars map[string]string) *Server {
	t.Helper()
	cfg := testConfig(t, vars)
	svc := core.NewService(core.ServiceConfig{
		DefaultScore:  cfg.Roster.DefaultScore,
		Settings:      core.DefaultSettings(),
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		ResultTTL:     cfg.Upload.ResultTTL,
		ResultCleanup: cfg.Upload.ResultCleanupInterval,
		Archive:       arc,
	})
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	return NewServer(svc, cfg)
}

func newArchiveServer(t *testing.T, vars map[string]string) *Server {
	t.Helper()
	arc, err := archive.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	return newTestServer(t, arc, vars)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, path, fileName string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func xlsxFile(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestParseRoster_XLSX(t *testing.T) {
	s := newTestServer(t, nil, nil)
	data := xlsxFile(t,
		[]any{"이름", "성별", "성적", "생활지도"},
		[]any{"김민수", "남", 480, "리더(+1)"},
		[]any{"이서연", "여", nil, nil},
	)

	for _, path := range []string{"/parseExcelFile", "/api/roster/parse"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(s, uploadRequest(t, path, "roster.xlsx", data))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var students []core.Student
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
			require.Len(t, students, 2)

			assert.Equal(t, "김민수", students[0].Name)
			assert.Equal(t, "남", students[0].Gender)
			assert.Equal(t, 480.0, students[0].AcademicScore)
			require.NotNil(t, students[0].BehaviorType)
			assert.Equal(t, "리더(+1)", *students[0].BehaviorType)
			assert.Equal(t, 1, students[0].BehaviorScore)

			assert.Equal(t, 500.0, students[1].AcademicScore)
			assert.Nil(t, students[1].BehaviorType)
			assert.NotEqual(t, students[0].ID, students[1].ID)

			uploadID := rec.Header().Get("X-Upload-ID")
			require.NotEmpty(t, uploadID)

			res := serve(s, httptest.NewRequest(http.MethodGet, "/api/roster/"+uploadID, nil))
			require.Equal(t, http.StatusOK, res.Code)
			var roster core.Roster
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &roster))
			assert.Equal(t, students, roster.Students)
			require.Len(t, roster.Issues, 1)
			assert.Equal(t, core.IssueDefaultedField, roster.Issues[0].Kind)
		})
	}
}

func TestParseRoster_CSV(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := serve(s, uploadRequest(t, "/api/roster/parse", "roster.csv", []byte("name,gender,score\nKim,M,1200.5\n")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var students []core.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	require.Len(t, students, 1)
	assert.Equal(t, 1200.5, students[0].AcademicScore)
}

func TestParseRoster_Rejections(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		wantKind core.Kind
		wantCode string
	}{
		{
			name: "corrupted xlsx",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/parseExcelFile", "roster.xlsx", []byte("definitely not a zip"))
			},
			wantKind: core.KindMalformedInput,
			wantCode: "ROS001",
		},
		{
			name: "missing gender",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/parseExcelFile", "roster.xlsx", xlsxFile(t,
					[]any{"이름", "성별"},
					[]any{"김민수", nil},
				))
			},
			wantKind: core.KindValidationFailed,
			wantCode: "ROS002",
		},
		{
			name: "no file field",
			req: func(t *testing.T) *http.Request {
				var body bytes.Buffer
				mw := multipart.NewWriter(&body)
				require.NoError(t, mw.WriteField("other", "x"))
				require.NoError(t, mw.Close())
				req := httptest.NewRequest(http.MethodPost, "/parseExcelFile", &body)
				req.Header.Set("Content-Type", mw.FormDataContentType())
				return req
			},
			wantCode: "FILE004",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/parseExcelFile", `{}`)
			},
			wantCode: "FILE004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.req(t))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.NotEmpty(t, resp.Message)
			if tt.wantKind == core.KindValidationFailed {
				require.NotEmpty(t, resp.Issues)
				assert.Equal(t, core.IssueMissingRequiredField, resp.Issues[0].Kind)
				assert.Equal(t, "gender", resp.Issues[0].Field)
			}
		})
	}
}

func TestParseRoster_TooLarge(t *testing.T) {
	s := newTestServer(t, nil, map[string]string{"UPLOAD_MAX_FILE_SIZE": "1024"})
	data := []byte("name,gender\n" + strings.Repeat("Kim,M\n", 1000))

	rec := serve(s, uploadRequest(t, "/parseExcelFile", "roster.csv", data))
	assert.GreaterOrEqual(t, rec.Code, 400)
	assert.Less(t, rec.Code, 500)
	resp := decodeError(t, rec)
	assert.Equal(t, "FILE001", resp.Code)
	assert.Contains(t, resp.Error, "limit 1.0 KiB")
}

func TestRosterResult_NotFound(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/roster/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UPL003", decodeError(t, rec).Code)
}

func TestLoadProject(t *testing.T) {
	s := newTestServer(t, nil, nil)

	for _, path := range []string{"/loadProject", "/api/project/load"} {
		rec := serve(s, jsonRequest(http.MethodPost, path, validProject))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"status":"state replaced","students":2,"groups":1}`, rec.Body.String())
	}

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/project", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var snap core.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Students, 2)
	assert.Equal(t, 510.0, snap.Students[1].AcademicScore)
	assert.Equal(t, []string{"s1"}, snap.Groups[0].Members)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestLoadProject_RejectionKeepsState(t *testing.T) {
	s := newTestServer(t, nil, nil)
	require.Equal(t, http.StatusOK, serve(s, jsonRequest(http.MethodPost, "/loadProject", validProject)).Code)

	tests := []struct {
		name     string
		body     string
		wantKind core.Kind
		wantCode string
	}{
		{"not json", `{"students": [`, core.KindMalformedInput, "PRJ001"},
		{"missing groups", `{"students": [], "settings": {}}`, core.KindMalformedInput, "PRJ001"},
		{
			"missing name",
			`{"students": [{"id": "s1", "gender": "M"}], "groups": [], "settings": {}}`,
			core.KindValidationFailed, "PRJ002",
		},
		{
			"dangling avoid id",
			`{"students": [{"id": "s1", "name": "Kim", "gender": "M", "avoid_ids": ["ghost"]}], "groups": [], "settings": {}}`,
			core.KindReferentialIntegrity, "PRJ003",
		},
		{
			"dangling member",
			`{"students": [], "groups": [{"id": "g1", "members": ["ghost"]}], "settings": {}}`,
			core.KindReferentialIntegrity, "PRJ003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, jsonRequest(http.MethodPost, "/loadProject", tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantKind, resp.Kind)
			assert.Equal(t, tt.wantCode, resp.Code)

			cur := serve(s, httptest.NewRequest(http.MethodGet, "/api/project", nil))
			var snap core.Snapshot
			require.NoError(t, json.Unmarshal(cur.Body.Bytes(), &snap))
			assert.Len(t, snap.Students, 2, "state must survive a rejected load")
		})
	}
}

func TestCheckProject_DoesNotCommit(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := serve(s, jsonRequest(http.MethodPost, "/api/project/check", validProject))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"valid","students":2,"groups":1}`, rec.Body.String())

	cur := serve(s, httptest.NewRequest(http.MethodGet, "/api/project", nil))
	assert.JSONEq(t,
		`{"students":[],"groups":[],"settings":{"classCount":4,"scoreTolerance":50,"numberingMethod":"mixed"}}`,
		cur.Body.String())
}

func TestArchive_Disabled(t *testing.T) {
	s := newTestServer(t, nil, nil)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/projects", nil),
		httptest.NewRequest(http.MethodPut, "/api/projects/spring", nil),
		httptest.NewRequest(http.MethodPost, "/api/projects/spring/load", nil),
		httptest.NewRequest(http.MethodDelete, "/api/projects/spring", nil),
	} {
		rec := serve(s, req)
		assert.Equal(t, http.StatusNotImplemented, rec.Code, req.Method+" "+req.URL.Path)
		assert.Equal(t, "ARC002", decodeError(t, rec).Code)
	}
}

func TestArchive_RoundTrip(t *testing.T) {
	s := newArchiveServer(t, nil)
	require.Equal(t, http.StatusOK, serve(s, jsonRequest(http.MethodPost, "/loadProject", validProject)).Code)

	rec := serve(s, httptest.NewRequest(http.MethodPut, "/api/projects/spring", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary core.ProjectSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "spring", summary.Name)
	assert.Equal(t, 2, summary.Students)

	// replace live state, then restore from the archive
	empty := `{"students": [], "groups": [], "settings": {}}`
	require.Equal(t, http.StatusOK, serve(s, jsonRequest(http.MethodPost, "/loadProject", empty)).Code)

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/projects/spring/load", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"state replaced","students":2,"groups":1}`, rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []core.ProjectSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "spring", list[0].Name)

	rec = serve(s, httptest.NewRequest(http.MethodDelete, "/api/projects/spring", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodDelete, "/api/projects/spring", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ARC001", decodeError(t, rec).Code)

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/projects/spring/load", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArchive_EmptyListAndBadName(t *testing.T) {
	s := newArchiveServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodPut, "/api/projects/.hidden", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ARC003", decodeError(t, rec).Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, map[string]string{"UPLOAD_MAX_CONCURRENT": "3"})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 3, health.Uploads.MaxConcurrent)
	assert.Equal(t, 3, health.Uploads.Available)
	assert.False(t, health.Archive)
	assert.Zero(t, health.Cached)

	data := []byte("name,gender\nKim,M\n")
	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "/api/roster/parse", "r.csv", data)).Code)
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, 1, health.Cached)
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, nil, map[string]string{"CORS_ALLOWED_ORIGINS": "https://school.example"})

	req := httptest.NewRequest(http.MethodOptions, "/api/project/load", nil)
	req.Header.Set("Origin", "https://school.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(s, req)

	assert.Equal(t, "https://school.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
