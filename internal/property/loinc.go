package property

// Relation names that are not release columns.
const (
	RelMapTo           = "MAP_TO"
	RelMultiaxialChild = "Multiaxial Child Of"
	RelIsA             = "Is a"
	// HasPrefix prefixes the relation linking a concept to its grouping concept for a column.
	HasPrefix = "Has_"
)

// Attribute names written on structural concepts and cross-reference edges.
const (
	AttrSourceVersion    = "Source Version"
	AttrReleaseDate      = "Release Date"
	AttrConverterVersion = "Converter Version"
	AttrComment          = "COMMENT"
)

// Column names the builder reads directly.
const (
	ColCode            = "LOINC_NUM"
	ColStatus          = "STATUS"
	ColChangeType      = "CHNG_TYPE"
	ColDateLastChanged = "DATE_LAST_CHANGED"
	ColDateLastChOld   = "DT_LAST_CH"
	ColAbbreviation    = "ABBREVIATION"
	ColPathToRoot      = "PATH_TO_ROOT"
	ColSequence        = "SEQUENCE"
	ColImmediateParent = "IMMEDIATE_PARENT"
	ColHierarchyCode   = "CODE"
	ColCodeText        = "CODE_TEXT"
	ColCopyrightID     = "COPYRIGHT_ID"
	ColName            = "NAME"
	ColCopyright       = "COPYRIGHT"
	ColTermsOfUse      = "TERMS_OF_USE"
	ColURL             = "URL"
)

var identifierDefs = []def{
	col(ColCode),
	col(ColAbbreviation),
	col(ColHierarchyCode),
	col(ColCopyrightID),
}

var descriptionDefs = []def{
	described("CONSUMER_NAME", PriorityOther),
	{name: "EXACT_CMP_SY", min: 0, max: 1, priority: PriorityOther},
	described("ACSSYM", PriorityOther),
	described("BASE_NAME", PriorityOther),
	described("SHORTNAME", PrioritySynonym),
	described("LONG_COMMON_NAME", PriorityPreferred),
	described(ColCodeText, PriorityPreferred),
	described(ColName, PriorityFallback),
}

var attributeDefs = []def{
	ranged(ColDateLastChOld, 0, 1),
	ranged(ColDateLastChanged, 2, 0),
	col(ColChangeType),
	col("COMMENTS"),
	retired("ANSWERLIST", 0, 1),
	retired("SCOPE", 0, 1),
	retired("IPCC_UNITS", 0, 1),
	ranged("REFERENCE", 0, 1),
	col("MOLAR_MASS"),
	col("CLASSTYPE"),
	col("FORMULA"),
	col("SPECIES"),
	col("EXMPL_ANSWERS"),
	col("CODE_TABLE"),
	ranged("SETROOT", 0, 1),
	retired("PANELELEMENTS", 0, 1),
	col("SURVEY_QUEST_TEXT"),
	col("SURVEY_QUEST_SRC"),
	col("UNITSREQUIRED"),
	col("SUBMITTED_UNITS"),
	col("ORDER_OBS"),
	col("CDISC_COMMON_TESTS"),
	col("HL7_FIELD_SUBFIELD_ID"),
	col("EXTERNAL_COPYRIGHT_NOTICE"),
	col("EXAMPLE_UNITS"),
	ranged("INPC_PERCENTAGE", 0, 1),
	col("HL7_V2_DATATYPE"),
	col("HL7_V3_DATATYPE"),
	col("CURATED_RANGE_AND_UNITS"),
	col("DOCUMENT_SECTION"),
	ranged("DEFINITION_DESCRIPTION_HELP", 0, 1),
	col("EXAMPLE_UCUM_UNITS"),
	col("EXAMPLE_SI_UCUM_UNITS"),
	col("STATUS_REASON"),
	col("STATUS_TEXT"),
	col("CHANGE_REASON_PUBLIC"),
	col("COMMON_TEST_RANK"),
	ranged("COMMON_ORDER_RANK", 2, 0),
	col(ColStatus),
	ranged("COMMON_SI_TEST_RANK", 3, 0),
	ranged("HL7_ATTACHMENT_STRUCTURE", 4, 0),
	col("NAACCR_ID"),
	retired("RELAT_NMS", 0, 1),
	col("RELATEDNAMES2"),
	col(ColSequence),
	col(ColImmediateParent),
	col(ColPathToRoot),
	col(ColCopyright),
	col(ColTermsOfUse),
	col(ColURL),
	col(AttrComment),
	col(AttrSourceVersion),
	col(AttrReleaseDate),
	col(AttrConverterVersion),
}

var axisDefs = []def{
	col("COMPONENT"),
	col("PROPERTY"),
	col("TIME_ASPCT"),
	col("SYSTEM"),
	col("SCALE_TYP"),
	col("METHOD_TYP"),
}

var classDefs = []def{
	col("CLASS"),
}

var relationDefs = []def{
	col(RelMapTo),
	col(RelMultiaxialChild),
	col(RelIsA),
}

var skipDefs = []def{
	col("SOURCE"),
	retired("FINAL", 0, 1),
}

// rankColumns hold a zero when the code is unranked; zeros are not loaded.
var rankColumns = map[string]bool{
	"COMMON_TEST_RANK":    true,
	"COMMON_ORDER_RANK":   true,
	"COMMON_SI_TEST_RANK": true,
}

// multiValueColumns hold ';'-separated lists, loaded as one attribute per distinct value.
var multiValueColumns = map[string]bool{
	"RELATEDNAMES2": true,
	"RELAT_NMS":     true,
}

// IsRankColumn reports whether a zero value in the column means "not ranked".
func IsRankColumn(name string) bool {
	return rankColumns[name]
}

// IsMultiValueColumn reports whether the column carries a ';'-separated list.
func IsMultiValueColumn(name string) bool {
	return multiValueColumns[name]
}
