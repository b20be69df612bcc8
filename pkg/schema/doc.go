// Package schema parses description files and lints element props.
//
// Descriptions are YAML or JSON documents shaped like domain.Element:
//
//	type: DOCUMENT
//	props:
//	  title: Invoice
//	children:
//	  - type: PAGE
//	    props: { size: A4 }
//	    children:
//	      - type: TEXT
//	        text: Hello
//	        props:
//	          style: { fontSize: 18, color: "#333" }
//
// Props are untyped maps on the wire. Validate checks them against a small
// type system (String, Number, Bool, Enum, ...) per node kind and reports
// every failure at once through AggregateError. DecodeProps turns a
// flattened prop map into the typed *Props structs the layout engine reads.
package schema
