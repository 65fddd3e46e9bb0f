package protocol

// LSP method constants for the operations chorus aggregates.
const (
	// Definition family
	MethodDefinition     = "textDocument/definition"
	MethodDeclaration    = "textDocument/declaration"
	MethodTypeDefinition = "textDocument/typeDefinition"
	MethodImplementation = "textDocument/implementation"
	MethodReferences     = "textDocument/references"

	// Text content
	MethodHover         = "textDocument/hover"
	MethodSignatureHelp = "textDocument/signatureHelp"

	// Symbols
	MethodDocumentSymbol  = "textDocument/documentSymbol"
	MethodWorkspaceSymbol = "workspace/symbol"

	// Actions and commands
	MethodCodeAction        = "textDocument/codeAction"
	MethodCodeActionResolve = "codeAction/resolve"
	MethodExecuteCommand    = "workspace/executeCommand"

	// Rename
	MethodPrepareRename = "textDocument/prepareRename"
	MethodRename        = "textDocument/rename"

	// Structure
	MethodSelectionRange       = "textDocument/selectionRange"
	MethodPrepareCallHierarchy = "textDocument/prepareCallHierarchy"
)
