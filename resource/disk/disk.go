package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru"
	"github.com/yaoapp/kun/log"
)

// Disk a script bundle rooted on the host filesystem. Reads go through
// an ARC cache keyed by name; the watch loop invalidates entries when
// their files change.
type Disk struct {
	root    string
	cache   *lru.ARCCache
	watched sync.Map
}

var defaultPatterns = []string{"*.js", "*.mjs", "*.ts", "*.lua", "*.wasm", "*.json", "*.jsonc", "*.yaml", "*.yml"}
var ignoreWatchDirs = []string{"node_modules", "dist", "logs", "data"}

// Option disk bundle settings
type Option struct {
	CacheSize int
}

// Validate fill in option defaults
func (option *Option) Validate() {
	if option.CacheSize == 0 {
		option.CacheSize = 1024
	}

	if option.CacheSize > 65536 {
		log.Warn("[Disk] the maximum value of cacheSize is 65536")
		option.CacheSize = 65536
	}
}

// Open the bundle rooted at root
func Open(root string, options ...Option) (*Disk, error) {

	option := Option{}
	if len(options) > 0 {
		option = options[0]
	}
	option.Validate()

	// with home dir
	if strings.HasPrefix(root, "~") {
		homedir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("[disk.Open] %s %s", root, err.Error())
		}
		root = homedir + strings.TrimPrefix(root, "~")
	}

	path, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("[disk.Open] %s %s", root, err.Error())
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("[disk.Open] %s %s", root, err.Error())
	}

	cache, err := lru.NewARC(option.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Disk{root: path, cache: cache}, nil
}

// Root the bundle root path
func (disk *Disk) Root() string {
	return disk.root
}

// Read the file content, from cache when possible
func (disk *Disk) Read(name string) ([]byte, error) {
	if cached, has := disk.cache.Get(name); has {
		if data, ok := cached.([]byte); ok {
			return data, nil
		}
	}

	file, err := disk.abs(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	disk.cache.Add(name, data)
	return data, nil
}

// Exists check if the file exists
func (disk *Disk) Exists(name string) (bool, error) {
	file, err := disk.abs(name)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(file); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Glob the files by pattern
func (disk *Disk) Glob(pattern string) ([]string, error) {
	file, err := disk.abs(pattern)
	if err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(file)
	if err != nil {
		return nil, err
	}

	for i, match := range matches {
		matches[i] = strings.TrimPrefix(match, disk.root)
	}
	return matches, nil
}

// Walk traverse folders and hand file names to the handler
func (disk *Disk) Walk(root string, handler func(root, file string, isdir bool) error, patterns ...string) error {
	rootAbs, err := disk.abs(root)
	if err != nil {
		return err
	}

	if patterns == nil {
		patterns = defaultPatterns
	}

	return filepath.Walk(rootAbs, func(filename string, info os.FileInfo, err error) error {
		if err != nil {
			log.Error("[disk.Walk] %s %s", filename, err.Error())
			return err
		}

		isdir := info.IsDir()
		if !isdir && len(patterns) > 0 && patterns[0] != "-" {
			notmatched := true
			basname := filepath.Base(filename)
			for _, pattern := range patterns {
				if matched, _ := filepath.Match(pattern, basname); matched {
					notmatched = false
					break
				}
			}

			if notmatched {
				return nil
			}
		}

		name := strings.TrimPrefix(filename, rootAbs)
		if name == "" && isdir {
			name = string(os.PathSeparator)
		}

		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "/.") || strings.HasPrefix(name, "\\.") {
			return nil
		}

		if !isdir {
			name = filepath.Join(root, name)
		}

		err = handler(root, name, isdir)
		if err == filepath.SkipDir || err == filepath.SkipAll {
			return err
		}

		if err != nil {
			log.Error("[disk.Walk] %s %s", filename, err.Error())
			return err
		}
		return nil
	})
}

// Watch the bundle for changes. Changed files are dropped from the read
// cache before the handler runs. Blocks until a value arrives on
// interrupt.
func (disk *Disk) Watch(handler func(event string, name string), interrupt chan uint8) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	shutdown := make(chan bool, 1)

	// watch every directory under the root
	err = disk.Walk("/", func(root, file string, isdir bool) error {
		if !isdir {
			return nil
		}

		for _, ignored := range ignoreWatchDirs {
			if strings.Contains(file, ignored) {
				return filepath.SkipDir
			}
		}

		filename, err := disk.abs(file)
		if err != nil {
			return err
		}

		if err := watcher.Add(filename); err != nil {
			return err
		}
		log.Info("[Watch] Watching: %s", filename)
		disk.watched.Store(filename, true)
		return nil
	}, "-")

	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-shutdown:
				log.Info("[Watch] handler exit")
				return

			case event, ok := <-watcher.Events:
				if !ok {
					interrupt <- 1
					return
				}

				basname := filepath.Base(event.Name)
				isdir := !strings.Contains(basname, ".")

				if !isdir {
					matched := false
					for _, pattern := range defaultPatterns {
						if ok, _ := filepath.Match(pattern, basname); ok {
							matched = true
							break
						}
					}

					if !matched {
						log.Info("[Watch] IGNORE %s", strings.TrimPrefix(event.Name, disk.root))
						break
					}
				}

				events := strings.Split(event.Op.String(), "|")
				for _, eventType := range events {

					if isdir {
						switch eventType {
						case "CREATE":
							log.Info("[Watch] Watching: %s", strings.TrimPrefix(event.Name, disk.root))
							watcher.Add(event.Name)
							disk.watched.Store(event.Name, true)

						case "REMOVE":
							log.Info("[Watch] Unwatching: %s", strings.TrimPrefix(event.Name, disk.root))
							watcher.Remove(event.Name)
							disk.watched.Delete(event.Name)
						}
						continue
					}

					// deliver bundle-relative names, the same form Read
					// caches under
					file := strings.TrimPrefix(event.Name, disk.root)
					file = strings.TrimPrefix(file, string(os.PathSeparator))
					disk.cache.Remove(file)
					log.Info("[Watch] %s %s", eventType, file)
					handler(eventType, file)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					interrupt <- 2
					return
				}
				log.Error("[Watch] Error: %s", err.Error())
			}
		}
	}()

	code := <-interrupt
	shutdown <- true
	log.Info("[Watch] Exit(%d)", code)
	fmt.Println(color.YellowString("[Watch] Exit(%d)", code))
	return nil
}

func (disk *Disk) abs(name string) (string, error) {
	path := filepath.Join(disk.root, name)
	path, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(path, disk.root) {
		return "", fmt.Errorf("[disk] %s is outside the bundle root", name)
	}
	return path, nil
}
