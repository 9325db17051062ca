package resource

// Bundle a rooted tree of script sources. The registry treats it as the
// authority for reading, enumerating and watching the scripts of one
// host session.
type Bundle interface {
	Read(name string) ([]byte, error)
	Exists(name string) (bool, error)
	Glob(pattern string) (matches []string, err error)
	Walk(path string, handler func(root, filename string, isdir bool) error, patterns ...string) error
	Watch(handler func(event string, name string), interrupt chan uint8) error
	Root() string
}
