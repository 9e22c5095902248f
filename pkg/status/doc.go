/*
Package status owns every write to the destination workspace.

	+-------------+        +-------------+
	|   syncer    |        |  operation  |
	| (policies)  |        |  (convert)  |
	+------+------+        +------+------+
	       |                      |
	       +----------+-----------+
	                  |
	           +------+------+
	           |   Manager   |
	           | (disk I/O)  |
	           +-------------+

🎯 Purpose:
- Performs file system operations relative to one root
- Names the outcome of each destination path (created, overwritten, preserved, skipped)
- Formats outcomes for the console

⚡ Key Responsibilities:
- Atomic writes (temp file + rename)
- Directory creation and removal
- Outcome accounting and formatting

The package never decides whether a path should be written; that is the job of
the policy table interpreted by the syncer.
*/
package status
