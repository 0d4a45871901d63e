// Package types defines the catalog and ledger entity types, their shallow
// and deep forms, the knowledge base and catalog containers, the Store and
// Table persistence interfaces, and the error taxonomy for lexicon.
//
// Every entity has two forms. The shallow form expresses relations as bare
// names (catalog) or identifiers (ledger) and is what travels through files,
// the persistence layer and tabular export. The deep form embeds the related
// objects directly. ToShallow derives the shallow form from a deep value;
// the <Kind>FromShallow functions rebuild the deep form through a resolver.
package types
