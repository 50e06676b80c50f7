// fotoredo scans a picture library and applies non-destructive effects to photos.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/karrick/godirwalk"
	"google.golang.org/genai"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotoredo/pkg/config"
	"github.com/tstromberg/fotoredo/pkg/editor"
	"github.com/tstromberg/fotoredo/pkg/effect"
	"github.com/tstromberg/fotoredo/pkg/library"
	"github.com/tstromberg/fotoredo/pkg/photo"
)

var (
	configPath   = flag.String("config", config.FileName, "Location of optional YAML configuration")
	libraryDir   = flag.String("library", "", "Location of picture library (overrides config)")
	cacheDir     = flag.String("cache", "", "Location of thumbnail cache (overrides config)")
	watchFlag    = flag.Bool("watch", false, "watch the library for changes and rescan")
	editPath     = flag.String("edit", "", "photo to edit instead of scanning the library")
	effectsFlag  = flag.String("effects", "", "comma-separated effects in chain order, e.g. sepia,grayscale")
	setFlag      = flag.String("set", "", "comma-separated parameters, e.g. exposure=0.5,blur=2")
	outPath      = flag.String("out", "", "where to save the edited photo; defaults to overwriting it")
	titleFlag    = flag.String("title", "", "new title to store in the photo's metadata")
	suggestTitle = flag.Bool("suggest-title", false, "ask a generative model for a title (needs GOOGLE_AI_API_KEY)")
	viewport     = flag.String("viewport", "", "report the fit-to-screen zoom for a WxH viewport")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		klog.V(1).Infof("no .env file: %v", err)
	}

	c, err := config.Load(*configPath)
	if err != nil {
		klog.Exitf("config: %v", err)
	}
	if *libraryDir != "" {
		c.LibraryDir = *libraryDir
	}
	if *cacheDir != "" {
		c.CacheDir = *cacheDir
	}

	var mr photo.MetadataReader = photo.HeaderReader{}
	var ts photo.TitleStore
	et, err := photo.NewExifTool()
	if err != nil {
		klog.Warningf("titles are unavailable: %v", err)
	} else {
		defer func() {
			if err := et.Close(); err != nil {
				klog.Errorf("Failed to close exiftool: %v", err)
			}
		}()
		mr, ts = et, et
	}

	ctx := context.Background()
	if *editPath != "" {
		if err := edit(ctx, c, mr, ts); err != nil {
			klog.Exitf("edit failed: %v", err)
		}
		return
	}

	if err := scan(ctx, c, mr, ts); err != nil {
		klog.Exitf("scan failed: %v", err)
	}

	if *watchFlag {
		if err := watch(ctx, c, mr, ts); err != nil {
			klog.Exitf("watch failed: %v", err)
		}
	}
}

func scan(ctx context.Context, c *config.Config, mr photo.MetadataReader, ts photo.TitleStore) error {
	l, err := library.Collect(ctx, c, library.Options{
		Metadata: mr,
		Titles:   ts,
		OnUnsupported: func(n int) {
			fmt.Fprintf(os.Stderr, "%s (%d): %s\n", library.UnsupportedTitle, n, library.UnsupportedMessage)
		},
	})
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	if l.Empty() {
		fmt.Printf("No pictures found in %s\n", c.LibraryDir)
		return nil
	}

	for _, it := range l.Items {
		p := it.Photo
		note := ""
		if it.Placeholder {
			note = " (unreadable)"
		}
		fmt.Printf("%-40s %-10s %-12s %s%s\n", p.Title(), p.FileType(), p.Dimensions(), p.Path(), note)
	}
	return nil
}

func edit(ctx context.Context, c *config.Config, mr photo.MetadataReader, ts photo.TitleStore) error {
	i, err := mr.ReadInfo(*editPath)
	if err != nil {
		klog.Warningf("metadata: %v", err)
		if i, err = (photo.HeaderReader{}).ReadInfo(*editPath); err != nil {
			return err
		}
	}
	p := photo.New(i, ts)
	defer p.Flush()

	e := editor.New(p, c)
	defer func() {
		e.Close()
		e.Wait()
	}()

	if err := e.Load(ctx); err != nil {
		return err
	}

	if *viewport != "" {
		vp, err := parseViewport(*viewport)
		if err != nil {
			return err
		}
		fmt.Printf("fit-to-screen zoom for %s in %dx%d: %.3f\n", p.Dimensions(), vp.X, vp.Y, e.FitToScreen(vp))
	}

	if err := setParams(e, *setFlag); err != nil {
		return err
	}

	ks, err := effect.ParseKinds(*effectsFlag)
	if err != nil {
		return err
	}
	e.SelectEffects()
	for _, k := range ks {
		if err := e.Select(k); err != nil {
			return err
		}
	}
	if err := e.Apply(); err != nil {
		return err
	}

	if *titleFlag != "" {
		p.SetTitle(*titleFlag)
	}
	if *suggestTitle {
		if err := suggest(ctx, p); err != nil {
			klog.Errorf("suggest title: %v", err)
		}
	}

	if !needsSave(e.Selection(), *setFlag) {
		fmt.Printf("%s: %s, %s\n", p.Title(), p.FileType(), p.Dimensions())
		return nil
	}

	dst := *outPath
	if dst == "" {
		dst = p.Path()
	}
	if err := e.Save(ctx, dst, editor.FileEncoder{}); err != nil {
		return err
	}
	fmt.Printf("saved %s with %v\n", dst, e.Composite())
	return nil
}

// needsSave reports whether the edit changes any pixels. Parameters only act
// through selected effects, so -set alone leaves the image as it was.
func needsSave(sel effect.Selection, set string) bool {
	if sel.Len() > 0 {
		return true
	}
	if strings.TrimSpace(set) != "" {
		klog.Warningf("-set %q has no effect without -effects; not saving", set)
	}
	return false
}

func setParams(e *editor.Controller, s string) error {
	for _, kv := range strings.Split(s, ",") {
		if strings.TrimSpace(kv) == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("parameter %q: want name=value", kv)
		}
		name, err := photo.ParamName(strings.TrimSpace(k))
		if err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", kv, err)
		}
		if err := e.SetParam(name, f); err != nil {
			return err
		}
	}
	return nil
}

func suggest(ctx context.Context, p *photo.Photo) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: os.Getenv("GOOGLE_AI_API_KEY"),
	})
	if err != nil {
		return fmt.Errorf("genai client: %w", err)
	}
	title, err := photo.SuggestTitle(ctx, client, p)
	if err != nil {
		return err
	}
	klog.Infof("suggested title for %s: %q", p.Path(), title)
	p.SetTitle(title)
	return nil
}

func parseViewport(s string) (image.Point, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return image.Point{}, fmt.Errorf("viewport %q: want WxH", s)
	}
	x, err := strconv.Atoi(w)
	if err != nil {
		return image.Point{}, fmt.Errorf("viewport width: %w", err)
	}
	y, err := strconv.Atoi(h)
	if err != nil {
		return image.Point{}, fmt.Errorf("viewport height: %w", err)
	}
	return image.Pt(x, y), nil
}

// watch rescans the library whenever a file under it changes. Events are
// debounced so a burst of copies produces one rescan.
func watch(ctx context.Context, c *config.Config, mr photo.MetadataReader, ts photo.TitleStore) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	dirs, err := libraryDirs(c.LibraryDir)
	if err != nil {
		return err
	}
	klog.Infof("watching %d dirs ...", len(dirs))
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %v", event)
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				pending = time.After(500 * time.Millisecond)
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.Add(event.Name); err != nil {
						klog.Warningf("watch %s: %v", event.Name, err)
					}
				}
			}
		case <-pending:
			pending = nil
			if err := scan(ctx, c, mr, ts); err != nil {
				klog.Errorf("rescan: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

func libraryDirs(root string) ([]string, error) {
	dirs := []string{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if path != root && strings.HasPrefix(de.Name(), ".") {
				return godirwalk.SkipThis
			}
			dirs = append(dirs, path)
			return nil
		},
	})
	slices.Sort(dirs)
	return dirs, err
}
