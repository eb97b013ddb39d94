package picture

import "strconv"

// DefaultPrefix namespaces every key and index of the picture store.
const DefaultPrefix = "pixxearch"

// keyspace derives key and index names from a namespace prefix.
type keyspace struct {
	prefix string
}

func (k keyspace) pictureIndex() string { return k.prefix + ":idx" }
func (k keyspace) colorIndex() string   { return k.prefix + ":colors:idx" }

func (k keyspace) picturePrefix() string { return k.prefix + ":pic:" }
func (k keyspace) colorPrefix() string   { return k.prefix + ":color:" }

func (k keyspace) pictureKey(docID string) string { return k.picturePrefix() + docID }

func (k keyspace) colorKey(docID string, i int) string {
	return k.colorPrefix() + docID + ":" + strconv.Itoa(i)
}

// colorPattern matches every color entry of one picture. Document ids are
// base64url, so they carry no glob metacharacters.
func (k keyspace) colorPattern(docID string) string {
	return k.colorPrefix() + docID + ":*"
}
