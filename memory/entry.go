package memory

// Cache namespaces used by the builtin tools.
const (
	NamespaceWebSearch  = "search/web"
	NamespaceWikiSearch = "search/wiki"
)

// Entry is a key-value pair. Keys are /-separated hierarchical paths and
// values are raw bytes.
type Entry struct {
	Key   string
	Value []byte
}
