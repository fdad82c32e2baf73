package host

import "github.com/beevik/cmd"

var cmds *cmd.Tree

// Command descriptors are kept in package-level tables so the help command
// can display them without walking the command tree.
var rootCommands = []cmd.CommandDescriptor{
	{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	},
	{
		Name:  "assemble",
		Brief: "Run pass one on a source file",
		Description: "Run the first assembler pass on the specified source" +
			" file, producing an intermediate file and symbol and literal" +
			" table dumps next to it. The tables remain loaded for" +
			" inspection with the symbols, literals, pools and intermediate" +
			" commands.",
		Usage: "assemble <filename>",
		Data:  (*Host).cmdAssemble,
	},
	{
		Name:        "symbols",
		Brief:       "Display the symbol table",
		Description: "Display the symbol table built by the last assemble command.",
		Usage:       "symbols",
		Data:        (*Host).cmdSymbols,
	},
	{
		Name:        "literals",
		Brief:       "Display the literal table",
		Description: "Display the literal table built by the last assemble command.",
		Usage:       "literals",
		Data:        (*Host).cmdLiterals,
	},
	{
		Name:  "pools",
		Brief: "Display the literal pool table",
		Description: "Display the start indices of literal pools still open" +
			" after the last assemble command.",
		Usage: "pools",
		Data:  (*Host).cmdPools,
	},
	{
		Name:  "intermediate",
		Brief: "Display the intermediate stream",
		Description: "Display the address-annotated intermediate records" +
			" emitted by the last assemble command. The number of lines to" +
			" display may be specified as an option.",
		Usage: "intermediate [<count>]",
		Data:  (*Host).cmdIntermediate,
	},
	{
		Name:  "set",
		Brief: "Set a configuration variable",
		Description: "Set the value of a configuration variable. Type the" +
			" set command without a variable name or value to display the" +
			" current values of all configuration variables.",
		Usage: "set [<var> <value>]",
		Data:  (*Host).cmdSet,
	},
	{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	},
}

var macroCommands = []cmd.CommandDescriptor{
	{
		Name:  "load",
		Brief: "Load macro name and definition tables",
		Description: "Load the macro name table and macro definition table" +
			" from the specified files. Loaded tables are used by the macro" +
			" expand command.",
		Usage: "macro load <mnt-file> <mdt-file>",
		Data:  (*Host).cmdMacroLoad,
	},
	{
		Name:  "expand",
		Brief: "Expand macro calls in a file",
		Description: "Expand macro invocations in the specified intermediate" +
			" file using the loaded macro tables, writing the expanded" +
			" stream to a file with the .exp extension unless an output" +
			" filename is given.",
		Usage: "macro expand <filename> [<output>]",
		Data:  (*Host).cmdMacroExpand,
	},
	{
		Name:        "list",
		Brief:       "List loaded macros",
		Description: "List the names in the loaded macro name table.",
		Usage:       "macro list",
		Data:        (*Host).cmdMacroList,
	},
}

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "pasm"})
	for _, c := range rootCommands {
		root.AddCommand(c)
	}

	mc := root.AddSubtree(cmd.TreeDescriptor{Name: "macro", Brief: "Macro processor commands"})
	for _, c := range macroCommands {
		mc.AddCommand(c)
	}

	cmds = root
}

// findDescriptor returns the descriptor for a named command, if any.
func findDescriptor(name string) *cmd.CommandDescriptor {
	for i := range rootCommands {
		if rootCommands[i].Name == name {
			return &rootCommands[i]
		}
	}
	for i := range macroCommands {
		if macroCommands[i].Name == name {
			return &macroCommands[i]
		}
	}
	return nil
}
