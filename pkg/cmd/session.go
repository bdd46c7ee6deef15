package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yeisme/dataroom/pkg/client"
	"github.com/yeisme/dataroom/pkg/configs"
	"github.com/yeisme/dataroom/pkg/log"
	"github.com/yeisme/dataroom/pkg/selection"
)

// positionFile 与状态文件同目录，保存当前选择位置.
const positionFile = "position.yaml"

var (
	errNotLoggedIn  = errors.New("not logged in, run `dataroom login <username>` first")
	errNoDataRoom   = errors.New("no data room selected, run `dataroom room open <id>` first")
	errRequestFailed = errors.New("request failed, see the log above")
)

// state 持久化在状态文件中的登录信息.
type state struct {
	APIBaseURL string `yaml:"api_base_url,omitempty"`
	Username   string `yaml:"username,omitempty"`
	Token      string `yaml:"token,omitempty"`
}

// session 一次命令执行期间的客户端、游标与状态.
type session struct {
	path   string
	state  state
	client *client.Client
	cursor *selection.Cursor
}

// openSession 读取状态文件并恢复游标. 恢复失败只记录日志.
func openSession(ctx context.Context) (*session, error) {
	cfg := configs.GetConfig().Client
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}

	s := &session{path: cfg.GetStateFile()}

	b, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read state: %w", err)
	default:
		if err := yaml.Unmarshal(b, &s.state); err != nil {
			return nil, fmt.Errorf("decode state %s: %w", s.path, err)
		}
	}

	// 换了服务端地址时旧令牌无效
	if s.state.APIBaseURL != "" && s.state.APIBaseURL != cfg.APIBaseURL {
		s.state = state{}
	}

	s.client = client.NewFromConfig(cfg, client.WithToken(s.state.Token))
	s.state.APIBaseURL = s.client.BaseURL()
	s.cursor = selection.ForClient(s.client)

	if s.state.Token == "" {
		return s, nil
	}

	pos, err := selection.LoadPosition(s.positionPath())
	if err != nil {
		return nil, err
	}

	if err := s.cursor.Restore(ctx, pos); err != nil {
		log.FromContext(ctx).Warn().Err(err).Msg("restore selection")
	}

	return s, nil
}

func (s *session) positionPath() string {
	return filepath.Join(filepath.Dir(s.path), positionFile)
}

// save 写回状态文件与当前位置.
func (s *session) save() error {
	s.state.Token = s.client.Token()

	b, err := yaml.Marshal(s.state)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	return selection.SavePosition(s.positionPath(), s.cursor.Position())
}

func (s *session) requireLogin() error {
	if s.client.Token() == "" {
		return errNotLoggedIn
	}

	return nil
}

// here 当前所在位置：打开的文件夹或数据室根目录.
func (s *session) here() (client.ParentRef, error) {
	snap := s.cursor.Snapshot()
	if snap.DataRoom == nil {
		return nil, errNoDataRoom
	}

	if snap.Folder != nil {
		return client.FolderRef{DataRoomID: snap.DataRoom.ID, FolderID: snap.Folder.ID}, nil
	}

	return client.DataRoomRoot{DataRoomID: snap.DataRoom.ID}, nil
}

// refresh 变更后重新获取当前数据室与文件夹.
func (s *session) refresh(ctx context.Context) {
	if err := s.cursor.Refresh(ctx); err != nil {
		log.FromContext(ctx).Debug().Err(err).Msg("refresh selection")
	}
}

// withSession 打开会话、要求已登录、执行 fn 并保存状态.
func withSession(ctx context.Context, fn func(s *session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}

	if err := s.requireLogin(); err != nil {
		return err
	}

	if err := fn(s); err != nil {
		return err
	}

	return s.save()
}
