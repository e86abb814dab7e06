package client

import (
	"context"

	"github.com/jpo-robotics/brain-agent/core"
)

func (c *Client) AgentInfo(ctx context.Context) (*core.AgentInfo, error) {
	info := new(core.AgentInfo)

	if err := c.Call(ctx, "agent-info", nil, info); err != nil {
		return nil, err
	}

	return info, nil
}

// ListDir returns the stat records of the children of path.
// The result is nil if the directory could not be listed.
func (c *Client) ListDir(ctx context.Context, path string, includeHidden bool) (map[string]core.EntryStat, error) {
	var entries map[string]core.EntryStat

	args := map[string]interface{}{
		"path":           path,
		"include_hidden": includeHidden,
	}

	if err := c.Call(ctx, "listdir", args, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (c *Client) ListAll(ctx context.Context, path string) ([]string, error) {
	var paths []string

	if err := c.Call(ctx, "listall", map[string]interface{}{"path": path}, &paths); err != nil {
		return nil, err
	}

	return paths, nil
}

// FileSHA1s returns the digests of paths in the same order.
// Files that could not be read have a nil digest.
func (c *Client) FileSHA1s(ctx context.Context, paths []string) ([]*string, error) {
	var digests []*string

	if err := c.Call(ctx, "file_sha1s", map[string]interface{}{"paths": paths}, &digests); err != nil {
		return nil, err
	}

	return digests, nil
}

func (c *Client) FileSizes(ctx context.Context, paths []string) ([]*int64, error) {
	var sizes []*int64

	if err := c.Call(ctx, "file_sizes", map[string]interface{}{"paths": paths}, &sizes); err != nil {
		return nil, err
	}

	return sizes, nil
}

func (c *Client) IsDir(ctx context.Context, path string) (bool, error) {
	var isDir bool

	if err := c.Call(ctx, "is_dir", map[string]interface{}{"path": path}, &isDir); err != nil {
		return false, err
	}

	return isDir, nil
}

func (c *Client) Mkdirs(ctx context.Context, path string) error {
	return c.Call(ctx, "mkdirs", map[string]interface{}{"path": path}, nil)
}

// DelTree removes the tree at path except the files listed in keep
// and those matching one of patterns (relative paths, "**" globs allowed).
func (c *Client) DelTree(ctx context.Context, path string, keep, patterns []string) error {
	args := map[string]interface{}{
		"path": path,
	}

	if len(keep) > 0 {
		args["keep"] = keep
	}

	if len(patterns) > 0 {
		args["keep_patterns"] = patterns
	}

	return c.Call(ctx, "deltree", args, nil)
}
