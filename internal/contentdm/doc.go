// Package contentdm reads the CONTENTdm digital-archive web services used by
// Oklahoma State University's Kappler collection. It builds API URLs and
// flattens the compound-object index into leaf records.
package contentdm
