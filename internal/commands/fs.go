package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jpo-robotics/brain-agent/core"

	"github.com/bmatcuk/doublestar/v4"
	log "github.com/sirupsen/logrus"
)

var ErrPathRequired = errors.New("path is required")

func pathOrCwd(args *Args) string {
	if args.Path == "" {
		return "."
	}

	return args.Path
}

// keepPredicate builds a deletion predicate that spares the files listed
// in keep and those matching one of the patterns.
// It returns nil if nothing has to be kept.
func keepPredicate(keep, patterns []string) (core.DeletePredicate, error) {
	if len(keep) == 0 && len(patterns) == 0 {
		return nil, nil
	}

	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid keep pattern: %q", p)
		}
	}

	kept := make(map[string]struct{}, len(keep))

	for _, p := range keep {
		kept[strings.TrimPrefix(p, "/")] = struct{}{}
	}

	return func(p string) bool {
		if _, ok := kept[p]; ok {
			return false
		}

		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(strings.TrimPrefix(pattern, "/"), p); ok {
				return false
			}
		}

		return true
	}, nil
}

func init() {
	register(&Command{
		Name:  "listdir",
		Usage: "stat the children of a directory",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			entries, err := srv.ListDir(pathOrCwd(args), args.IncludeHidden)
			if err != nil {
				log.WithField("path", args.Path).Debugf("Could not list directory: %s", err)

				// reported as null
				return nil, nil
			}

			return entries, nil
		},
	})

	register(&Command{
		Name:  "listnames",
		Usage: "list the names of the children of a directory",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return srv.ListNames(pathOrCwd(args))
		},
	})

	register(&Command{
		Name:  "mkdirs",
		Usage: "create a directory and all missing parents",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return nil, srv.Mkdirs(args.Path)
		},
	})

	register(&Command{
		Name:  "is_dir",
		Usage: "check whether a path is a directory",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return srv.IsDir(args.Path)
		},
	})

	register(&Command{
		Name:  "file_sizes",
		Usage: "return the sizes of a list of files",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return srv.FileSizes(args.Paths), nil
		},
	})

	register(&Command{
		Name:  "file_sha1",
		Usage: "return the SHA-1 digest of a file",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return srv.FileSHA1(args.Path), nil
		},
	})

	register(&Command{
		Name:  "file_sha1s",
		Usage: "return the SHA-1 digests of a list of files",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return srv.FileSHA1s(args.Paths), nil
		},
	})

	register(&Command{
		Name:  "listall",
		Usage: "list a directory tree recursively",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			if args.Path == "" {
				// entries are reported with absolute paths
				return srv.ListAll(srv.Getcwd())
			}

			return srv.ListAll(args.Path)
		},
	})

	register(&Command{
		Name:  "deltree",
		Usage: "delete a directory tree, optionally keeping some files",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			// never defaults to the current directory
			if args.Path == "" {
				return nil, fmt.Errorf("deltree: %w", ErrPathRequired)
			}

			pred, err := keepPredicate(args.Keep, args.KeepPatterns)
			if err != nil {
				return nil, err
			}

			return nil, srv.DelTree(args.Path, pred)
		},
	})

	register(&Command{
		Name:  "rmdir",
		Usage: "remove an empty directory",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return nil, srv.Rmdir(args.Path)
		},
	})

	register(&Command{
		Name:  "getcwd",
		Usage: "return the current directory",
		Handler: func(_ context.Context, srv *core.Server, _ *Args) (interface{}, error) {
			return srv.Getcwd(), nil
		},
	})

	register(&Command{
		Name:  "chdir",
		Usage: "change the current directory",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return nil, srv.Chdir(args.Path)
		},
	})

	register(&Command{
		Name:  "file-open",
		Usage: "open a file for reading (r) or writing (w) and return its handle",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return srv.FileOpen(args.Path, args.Mode)
		},
	})

	register(&Command{
		Name:  "file-read",
		Usage: "read the next chunk of an open file",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return srv.FileRead(args.HandleID)
		},
	})

	register(&Command{
		Name:  "file-write",
		Usage: "append a chunk to an open file",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			if err := srv.FileWrite(args.HandleID, args.Data, args.EOF); err != nil {
				return nil, err
			}

			return len(args.Data), nil
		},
	})

	register(&Command{
		Name:  "file-close",
		Usage: "close an open file",
		Handler: func(_ context.Context, srv *core.Server, args *Args) (interface{}, error) {
			return nil, srv.FileClose(args.HandleID)
		},
	})
}
