package handle_test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/dataroom/pkg/api"
	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/internal/storage/storagetest"
	"github.com/yeisme/dataroom/pkg/internal/types"
)

type server struct {
	t      *testing.T
	engine *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()

	cfg := storagetest.Config(t)
	_, mgr := storagetest.New(t, cfg)

	return &server{t: t, engine: api.NewEngine(&cfg, mgr, nil)}
}

func (s *server) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	s.t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func (s *server) json(method, path, token string, in, out any, want int) {
	s.t.Helper()

	var body io.Reader
	if in != nil {
		b, err := sonic.Marshal(in)
		if err != nil {
			s.t.Fatal(err)
		}

		body = bytes.NewReader(b)
	}

	w := s.do(method, path, token, body, "application/json")
	if w.Code != want {
		s.t.Fatalf("%s %s = %d, want %d: %s", method, path, w.Code, want, w.Body.String())
	}

	if out != nil {
		if err := sonic.Unmarshal(w.Body.Bytes(), out); err != nil {
			s.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
}

func (s *server) login(username string) string {
	s.t.Helper()

	var tok types.TokenResponse
	s.json(http.MethodPost, "/login", "", types.LoginRequest{Username: username}, &tok, http.StatusOK)

	if tok.AccessToken == "" {
		s.t.Fatal("empty access token")
	}

	return tok.AccessToken
}

func (s *server) upload(token string, room uint, folder *uint, filename, content string) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", filename)
	_ = mw.WriteField("parent_data_room_id", fmt.Sprint(room))

	if folder != nil {
		_ = mw.WriteField("parent_folder_id", fmt.Sprint(*folder))
	}

	fw, err := mw.CreateFormFile("files", filename)
	if err != nil {
		s.t.Fatal(err)
	}

	_, _ = io.WriteString(fw, content)
	_ = mw.Close()

	return s.do(http.MethodPost, "/file", token, &buf, mw.FormDataContentType())
}

func contains(refs []types.ItemRef, name string) bool {
	for _, r := range refs {
		if r.Name == name {
			return true
		}
	}

	return false
}

func TestAliceCreatesContractsInDeals(t *testing.T) {
	s := newServer(t)
	alice := s.login("alice")

	var empty map[string]any
	s.json(http.MethodGet, "/data-room", alice, nil, &empty, http.StatusOK)

	if list, ok := empty["user_data_rooms"].([]any); !ok || len(list) != 0 {
		t.Fatalf("empty list = %#v, want user_data_rooms: []", empty)
	}

	var deals types.DataRoomView
	s.json(http.MethodPost, "/data-room", alice, types.CreateDataRoomRequest{Name: "Deals"}, &deals, http.StatusCreated)

	var contracts types.FolderView
	s.json(http.MethodPost, "/folder", alice, types.CreateFolderRequest{Name: "Contracts", ParentDataRoomID: deals.ID}, &contracts, http.StatusCreated)

	if contracts.ParentDataRoomID != deals.ID || contracts.ParentFolderID != nil {
		t.Fatalf("contracts = %+v", contracts)
	}

	var got types.DataRoomView
	s.json(http.MethodGet, fmt.Sprintf("/data-room/%d", deals.ID), alice, nil, &got, http.StatusOK)

	if !contains(got.Folders, "Contracts") {
		t.Fatalf("data room folders = %+v, want Contracts", got.Folders)
	}

	var list types.DataRoomListResponse
	s.json(http.MethodGet, "/data-room", alice, nil, &list, http.StatusOK)

	if len(list.UserDataRooms) != 1 || list.UserDataRooms[0].Name != "Deals" {
		t.Fatalf("list = %+v", list)
	}

	// 同名数据室冲突
	s.json(http.MethodPost, "/data-room", alice, types.CreateDataRoomRequest{Name: "Deals"}, nil, http.StatusBadRequest)
}

func TestUploadIntoFolderAndMoveUp(t *testing.T) {
	s := newServer(t)
	alice := s.login("alice")

	var room types.DataRoomView
	s.json(http.MethodPost, "/data-room", alice, types.CreateDataRoomRequest{Name: "Deals"}, &room, http.StatusCreated)

	// 第 7 个文件夹
	var folder types.FolderView
	for i := 1; i <= 7; i++ {
		s.json(http.MethodPost, "/folder", alice,
			types.CreateFolderRequest{Name: fmt.Sprintf("F%d", i), ParentDataRoomID: room.ID}, &folder, http.StatusCreated)
	}

	if folder.ID != 7 {
		t.Fatalf("folder id = %d, want 7", folder.ID)
	}

	w := s.upload(alice, room.ID, &folder.ID, "report.pdf", "%PDF-1.7")
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d: %s", w.Code, w.Body.String())
	}

	var file types.FileView
	if err := sonic.Unmarshal(w.Body.Bytes(), &file); err != nil {
		t.Fatal(err)
	}

	if file.ContentType != "application/pdf" {
		t.Fatalf("content type = %q", file.ContentType)
	}

	var f7 types.FolderView
	s.json(http.MethodGet, "/folder/7", alice, nil, &f7, http.StatusOK)

	if !contains(f7.ChildrenFiles, "report.pdf") {
		t.Fatalf("folder 7 files = %+v", f7.ChildrenFiles)
	}

	dl := s.do(http.MethodGet, fmt.Sprintf("/file/%d", file.ID), alice, nil, "")
	if dl.Code != http.StatusOK || dl.Body.String() != "%PDF-1.7" {
		t.Fatalf("download = %d %q", dl.Code, dl.Body.String())
	}

	if cd := dl.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "report.pdf") {
		t.Fatalf("Content-Disposition = %q", cd)
	}

	// 移到数据室根目录
	var moved types.FileView
	s.json(http.MethodPut, fmt.Sprintf("/file/%d", file.ID), alice,
		types.MoveFileRequest{Name: "report.pdf", ParentDataRoomID: room.ID}, &moved, http.StatusOK)

	if moved.ParentFolderID != nil {
		t.Fatalf("moved parent folder = %v, want none", *moved.ParentFolderID)
	}

	var root types.DataRoomView
	s.json(http.MethodGet, fmt.Sprintf("/data-room/%d", room.ID), alice, nil, &root, http.StatusOK)

	if !contains(root.Files, "report.pdf") {
		t.Fatalf("root files = %+v", root.Files)
	}

	s.json(http.MethodGet, "/folder/7", alice, nil, &f7, http.StatusOK)

	if contains(f7.ChildrenFiles, "report.pdf") {
		t.Fatalf("folder 7 still lists the file: %+v", f7.ChildrenFiles)
	}

	s.json(http.MethodDelete, fmt.Sprintf("/file/%d", file.ID), alice, nil, nil, http.StatusOK)
	s.json(http.MethodGet, fmt.Sprintf("/file/%d", file.ID), alice, nil, nil, http.StatusNotFound)
}

func TestErrorStatuses(t *testing.T) {
	s := newServer(t)
	alice := s.login("alice")
	bob := s.login("bob")

	var room types.DataRoomView
	s.json(http.MethodPost, "/data-room", alice, types.CreateDataRoomRequest{Name: "Deals"}, &room, http.StatusCreated)

	var a, b types.FolderView
	s.json(http.MethodPost, "/folder", alice, types.CreateFolderRequest{Name: "A", ParentDataRoomID: room.ID}, &a, http.StatusCreated)
	s.json(http.MethodPost, "/folder", alice, types.CreateFolderRequest{Name: "B", ParentDataRoomID: room.ID, ParentFolderID: &a.ID}, &b, http.StatusCreated)

	roomPath := fmt.Sprintf("/data-room/%d", room.ID)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no token", http.MethodGet, "/data-room", "", nil, http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/data-room", "garbage", nil, http.StatusUnauthorized},
		{"other owner", http.MethodGet, roomPath, bob, nil, http.StatusUnauthorized},
		{"missing room", http.MethodGet, "/data-room/999", alice, nil, http.StatusNotFound},
		{"non numeric id", http.MethodGet, "/folder/abc", alice, nil, http.StatusNotFound},
		{"empty name", http.MethodPost, "/data-room", alice, types.CreateDataRoomRequest{Name: " "}, http.StatusBadRequest},
		{"missing parent room", http.MethodPost, "/folder", alice, types.CreateFolderRequest{Name: "X", ParentDataRoomID: 999}, http.StatusNotFound},
		{"cycle", http.MethodPut, fmt.Sprintf("/folder/%d", a.ID), alice,
			types.MoveFolderRequest{Name: "A", ParentDataRoomID: room.ID, ParentFolderID: &b.ID}, http.StatusBadRequest},
		{"other owner delete", http.MethodDelete, roomPath, bob, nil, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s.t = t
			s.json(tc.method, tc.path, tc.token, tc.body, nil, tc.want)
		})
	}

	s.t = t

	w := s.upload(alice, 999, nil, "x.txt", "x")
	if w.Code != http.StatusNotFound {
		t.Fatalf("upload to missing room = %d", w.Code)
	}
}

func TestUploadLimits(t *testing.T) {
	s := newServer(t)
	alice := s.login("alice")

	var room types.DataRoomView
	s.json(http.MethodPost, "/data-room", alice, types.CreateDataRoomRequest{Name: "Deals"}, &room, http.StatusCreated)

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("parent_data_room_id", fmt.Sprint(room.ID))
	_ = mw.Close()

	if w := s.do(http.MethodPost, "/file", alice, &buf, mw.FormDataContentType()); w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "no file provided") {
		t.Fatalf("upload without file part = %d %s", w.Code, w.Body.String())
	}

	cfg := *configs.GetConfig()
	cfg.Server.MaxUploadMB = 1
	configs.SetConfig(cfg)

	if w := s.upload(alice, room.ID, nil, "big.bin", strings.Repeat("x", 1<<20+1)); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized upload = %d %s", w.Code, w.Body.String())
	}
}

func TestUserEndpoints(t *testing.T) {
	s := newServer(t)

	var tok types.TokenResponse
	s.json(http.MethodPost, "/user", "", types.CreateUserRequest{Username: "carol", Email: "carol@corp.example"}, &tok, http.StatusOK)
	s.json(http.MethodPost, "/user", "", types.CreateUserRequest{Username: "carol", Email: "other@corp.example"}, nil, http.StatusBadRequest)

	var me types.UserView
	s.json(http.MethodGet, "/user", tok.AccessToken, nil, &me, http.StatusOK)

	if me.Username != "carol" || me.Email != "carol@corp.example" {
		t.Fatalf("me = %+v", me)
	}

	s.json(http.MethodPut, "/user", tok.AccessToken, types.UpdateUserRequest{Username: "caroline", Email: "caroline@corp.example"}, &me, http.StatusOK)

	if me.Username != "caroline" {
		t.Fatalf("updated = %+v", me)
	}

	// 登录自动注册
	dave := s.login("dave")
	s.json(http.MethodGet, "/user", dave, nil, &me, http.StatusOK)

	if me.Email != "dave@example.com" {
		t.Fatalf("auto-provisioned email = %q", me.Email)
	}

	s.json(http.MethodDelete, "/user", tok.AccessToken, nil, nil, http.StatusOK)
	s.json(http.MethodGet, "/user", tok.AccessToken, nil, nil, http.StatusNotFound)
}

func TestStatsAndHealth(t *testing.T) {
	s := newServer(t)
	alice := s.login("alice")

	var room types.DataRoomView
	s.json(http.MethodPost, "/data-room", alice, types.CreateDataRoomRequest{Name: "Deals"}, &room, http.StatusCreated)

	if w := s.upload(alice, room.ID, nil, "a.txt", "hello"); w.Code != http.StatusCreated {
		t.Fatalf("upload = %d", w.Code)
	}

	var stats types.StatsResponse
	s.json(http.MethodGet, "/api/v1/stats", alice, nil, &stats, http.StatusOK)

	if stats.Summary.DataRooms != 1 || stats.Summary.Files != 1 || stats.Summary.TotalSize != 5 {
		t.Fatalf("stats = %+v", stats.Summary)
	}

	for _, c := range []string{"db", "blob", "kv", "mq"} {
		s.json(http.MethodGet, "/api/v1/health/"+c, "", nil, nil, http.StatusOK)
	}

	s.json(http.MethodGet, "/api/v1/scheduler/jobs", "", nil, nil, http.StatusUnauthorized)
	s.json(http.MethodGet, "/api/v1/scheduler/jobs", alice, nil, nil, http.StatusServiceUnavailable)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/data-room", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Authorization,Content-Type")

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight = %d", w.Code)
	}

	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PUT") || !strings.Contains(got, "DELETE") {
		t.Fatalf("allow methods = %q", got)
	}
}
