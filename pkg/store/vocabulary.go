// Package store provides RDF triple storage, literal encoding and the
// serializers used to read and publish SKOS terminologies.
package store

// Namespace URIs for the vocabularies the terminology pipeline understands.
const (
	// NamespaceRDF is the standard RDF namespace.
	NamespaceRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// NamespaceRDFS is the RDF Schema namespace.
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"

	// NamespaceOWL is the Web Ontology Language namespace.
	NamespaceOWL = "http://www.w3.org/2002/07/owl#"

	// NamespaceXSD is the XML Schema namespace for datatypes.
	NamespaceXSD = "http://www.w3.org/2001/XMLSchema#"

	// NamespaceSKOS is the W3C Simple Knowledge Organization System namespace.
	NamespaceSKOS = "http://www.w3.org/2004/02/skos/core#"

	// NamespaceDCTerms is the Dublin Core terms namespace.
	NamespaceDCTerms = "http://purl.org/dc/terms/"

	// NamespaceAPI4KP is the API4KP namespace for knowledge asset metadata.
	NamespaceAPI4KP = "https://www.omg.org/spec/API4KP/api4kp/"
)

// RDF, RDFS and OWL terms.
const (
	RDFType = NamespaceRDF + "type"

	RDFSLabel       = NamespaceRDFS + "label"
	RDFSComment     = NamespaceRDFS + "comment"
	RDFSIsDefinedBy = NamespaceRDFS + "isDefinedBy"
	RDFSSubClassOf  = NamespaceRDFS + "subClassOf"

	OWLOntology        = NamespaceOWL + "Ontology"
	OWLNamedIndividual = NamespaceOWL + "NamedIndividual"
	OWLClass           = NamespaceOWL + "Class"
	OWLVersionIRI      = NamespaceOWL + "versionIRI"
	OWLVersionInfo     = NamespaceOWL + "versionInfo"
	OWLImports         = NamespaceOWL + "imports"
)

// SKOS classes and properties.
const (
	SKOSConcept       = NamespaceSKOS + "Concept"
	SKOSConceptScheme = NamespaceSKOS + "ConceptScheme"

	SKOSInScheme          = NamespaceSKOS + "inScheme"
	SKOSBroader           = NamespaceSKOS + "broader"
	SKOSBroaderTransitive = NamespaceSKOS + "broaderTransitive"
	SKOSNarrower          = NamespaceSKOS + "narrower"
	SKOSTopConceptOf      = NamespaceSKOS + "topConceptOf"
	SKOSHasTopConcept     = NamespaceSKOS + "hasTopConcept"
	SKOSNotation          = NamespaceSKOS + "notation"
	SKOSPrefLabel         = NamespaceSKOS + "prefLabel"
	SKOSAltLabel          = NamespaceSKOS + "altLabel"
	SKOSDefinition        = NamespaceSKOS + "definition"
)

// Dublin Core terms.
const (
	DCTermsIdentifier = NamespaceDCTerms + "identifier"
	DCTermsIssued     = NamespaceDCTerms + "issued"
	DCTermsCreated    = NamespaceDCTerms + "created"
	DCTermsTitle      = NamespaceDCTerms + "title"
)

// XML Schema datatypes.
const (
	XSDString   = NamespaceXSD + "string"
	XSDDate     = NamespaceXSD + "date"
	XSDDateTime = NamespaceXSD + "dateTime"
	XSDToken    = NamespaceXSD + "token"
)
