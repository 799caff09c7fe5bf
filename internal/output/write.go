package output

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Write renders root into dst. Everything goes to a fresh sibling directory
// first, which then replaces dst, so a failed write never leaves a partial
// site behind and never touches the previous one.
func Write(ctx context.Context, dst string, root *Dir) error {
	dst, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("output: resolve %s: %w", dst, err)
	}
	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("output: mkdir: %w", err)
	}

	tmp, err := os.MkdirTemp(parent, ".blogula-build-*")
	if err != nil {
		return fmt.Errorf("output: create staging dir: %w", err)
	}
	success := false
	defer func() {
		if !success {
			_ = os.RemoveAll(tmp)
		}
	}()

	if err := writeDir(ctx, tmp, root); err != nil {
		return err
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		return fmt.Errorf("output: chmod: %w", err)
	}
	if err := swap(tmp, dst); err != nil {
		return err
	}
	success = true
	return nil
}

// swap moves staged into place of dst, keeping the old tree until the new
// one is in.
func swap(staged, dst string) error {
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		if err := os.Rename(staged, dst); err != nil {
			return fmt.Errorf("output: rename: %w", err)
		}
		return nil
	}

	old, err := os.MkdirTemp(filepath.Dir(dst), ".blogula-old-*")
	if err != nil {
		return fmt.Errorf("output: create backup name: %w", err)
	}
	if err := os.Remove(old); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := os.Rename(dst, old); err != nil {
		return fmt.Errorf("output: move previous output: %w", err)
	}
	if err := os.Rename(staged, dst); err != nil {
		_ = os.Rename(old, dst)
		return fmt.Errorf("output: rename: %w", err)
	}
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("output: remove previous output: %w", err)
	}
	return nil
}

func writeDir(ctx context.Context, dir string, d *Dir) error {
	for _, name := range d.names {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dir, name)
		switch u := d.units[name].(type) {
		case *File:
			if err := os.WriteFile(target, u.Content, 0o644); err != nil {
				return fmt.Errorf("output: write %s: %w", name, err)
			}
		case *Copy:
			var err error
			if u.IsDir {
				err = copyTree(u.Source, target)
			} else {
				err = copyFile(u.Source, target)
			}
			if err != nil {
				return fmt.Errorf("output: copy %s: %w", u.Source, err)
			}
		case *Dir:
			if err := os.Mkdir(target, 0o755); err != nil {
				return fmt.Errorf("output: mkdir %s: %w", name, err)
			}
			if err := writeDir(ctx, target, u); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
