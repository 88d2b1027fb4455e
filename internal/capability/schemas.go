package capability

const (
	ProcessDispute       = "process_dispute"
	VerifyAndDispute     = "verify_and_dispute"
	RetryCaseCreation    = "retry_case_creation"
	GetCase              = "get_case"
	ListCustomerCases    = "list_customer_cases"
	UpdateCase           = "update_case"
	ApplyAcquirerOutcome = "apply_acquirer_outcome"
	CustomerLookup       = "customer_lookup"
	CardLookup           = "card_lookup"
	TransactionLookup    = "transaction_lookup"
	KVQuery              = "kv_query"
)

const processDisputeSchema = `{
  "type": "object",
  "properties": {
    "transaction": {
      "type": "object",
      "description": "Transaction record. transaction_id is required; amount is read from amount_usd, amount, transaction_amount or value; age from transaction_date or date.",
      "properties": {
        "transaction_id": {"type": "string"},
        "customer_id": {"type": "string"},
        "card_id": {"type": "string"},
        "transaction_date": {"type": "string"},
        "amount": {"type": ["number", "string"]}
      },
      "required": ["transaction_id"]
    }
  },
  "required": ["transaction"]
}`

const verifyAndDisputeSchema = `{
  "type": "object",
  "properties": {
    "transaction_id": {"type": "string"},
    "customer_id": {"type": "string"},
    "card_number": {"type": "string"}
  },
  "required": ["transaction_id", "customer_id", "card_number"]
}`

const retryCaseCreationSchema = `{
  "type": "object",
  "properties": {
    "case": {
      "type": "object",
      "description": "The unpersisted_case returned by a failed process_dispute call, unchanged.",
      "required": ["case_id", "transaction_id", "created_at", "updated_at"]
    }
  },
  "required": ["case"]
}`

const getCaseSchema = `{
  "type": "object",
  "properties": {
    "case_id": {"type": "string"}
  },
  "required": ["case_id"]
}`

const listCustomerCasesSchema = `{
  "type": "object",
  "properties": {
    "customer_id": {"type": "string"},
    "limit": {"type": "integer", "minimum": 1, "default": 50}
  },
  "required": ["customer_id"]
}`

const updateCaseSchema = `{
  "type": "object",
  "properties": {
    "case_id": {"type": "string"},
    "updates": {
      "type": "object",
      "description": "Fields to change, e.g. dispute_status, credit_type, credit_amount, acquirer_outcome or free-form notes."
    }
  },
  "required": ["case_id", "updates"]
}`

const applyAcquirerOutcomeSchema = `{
  "type": "object",
  "properties": {
    "case_id": {"type": "string"},
    "outcome": {"type": "string", "enum": ["customer_won", "merchant_won", "withdrawn"]}
  },
  "required": ["case_id", "outcome"]
}`

const customerLookupSchema = `{
  "type": "object",
  "properties": {
    "customer_id": {"type": "string"}
  },
  "required": ["customer_id"]
}`

const cardLookupSchema = `{
  "type": "object",
  "properties": {
    "customer_id": {"type": "string"},
    "card_number": {"type": "string"}
  },
  "required": ["customer_id", "card_number"]
}`

const transactionLookupSchema = `{
  "type": "object",
  "properties": {
    "transaction_id": {"type": "string"},
    "customer_id": {"type": "string"},
    "card_number": {"type": "string"}
  },
  "required": ["transaction_id"]
}`

const kvQuerySchema = `{
  "type": "object",
  "properties": {
    "table_name": {"type": "string", "enum": ["card_transactions", "cases"]},
    "operation": {"type": "string", "enum": ["get_item", "query", "scan", "put_item", "update_item"]},
    "key": {"type": "object"},
    "key_condition": {"type": "object", "description": "Partition key equality plus an optional sort key condition: a string, {\"begins_with\": s} or {\"between\": [lo, hi]}."},
    "index_name": {"type": "string", "enum": ["TransactionIndex", "CustomerIndex"]},
    "filter_expression": {"type": "object", "description": "Attribute equalities applied after the key condition."},
    "attributes_to_get": {"type": "array", "items": {"type": "string"}},
    "limit": {"type": "integer", "minimum": 1},
    "descending": {"type": "boolean"},
    "item_data": {"type": "object"},
    "update_expression": {"type": "object", "description": "Attributes to set on the item."}
  },
  "required": ["table_name", "operation"]
}`
